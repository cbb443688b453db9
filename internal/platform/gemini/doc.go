// Package gemini provides an implementation of the generation.Generator
// interface that uses Google's Gemini API for generating card sets from
// extracted source text.
//
// This package is an infrastructure adapter in the hexagonal architecture,
// connecting the application's domain logic to Google's external Gemini AI
// service. It translates between the application's domain models and the
// Gemini API without exposing the details of the external service to the
// core application.
//
// Key components:
//
// 1. GeminiGenerator:
//   - Implements the generation.Generator interface
//   - Handles communication with the Gemini API
//   - Processes structured responses into domain models
//
// 2. Prompt Management:
//   - Loads prompt templates from files
//   - Substitutes extracted source text into templates
//
// 3. Response Processing:
//   - Parses structured JSON responses from the API
//   - Validates responses against the expected card set schema
//   - Converts API responses to domain Card objects in phase order
//
// 4. Error Handling:
//   - Categorizes API errors as transient or permanent so the work queue
//     can apply the right retry policy
//   - Handles content filtering and safety measures
package gemini
