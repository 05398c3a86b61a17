// Package apierr classifies pipeline failures into the small error taxonomy
// the HTTP surface and persisted job/batch records share: bad_request,
// bad_audio, engine_error, internal_error, plus the transport-originated
// unauthorized/forbidden/not_found codes.
//
// Stage and adapter code wraps underlying errors with Wrap, tagging them with
// one of the exported sentinel markers; callers at the job/batch boundary use
// Classify (or DetailFor) to recover the taxonomy code for persistence and for
// the HTTP error body.
package apierr
