// Package httpapi is the minimal HTTP transport fronting the job/batch
// lifecycle core: multipart/JSON job and batch creation, status polling,
// artifact download, and batch cancellation.
//
// Routing, multipart decoding, and response shaping live here; request-ID
// assignment and bearer-token validation are the deployment's concern, not
// the core's — this package only renders what the core's data model
// produces.
package httpapi
