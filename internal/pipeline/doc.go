// Package pipeline runs the asynchronous card generation pipeline. It
// leases work items from the queue, extracts text from the uploaded
// source, generates a card set through the generation capability, persists
// the cards transactionally, and settles the lease. Failures are
// classified as transient (retried per the queue's backoff policy) or
// permanent (failed immediately). On startup the pipeline re-enqueues
// unfinished jobs from the job store so work survives restarts.
package pipeline
