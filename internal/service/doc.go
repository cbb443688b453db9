// Package service contains the application services that sit between the
// delivery layer and the domain: submitting uploads, polling job status,
// recording review actions, and assembling study sessions. Services
// orchestrate stores and domain logic; they hold no business rules of
// their own beyond sequencing and error translation.
package service
