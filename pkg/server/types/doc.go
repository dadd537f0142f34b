// Package types defines the wire types shared by the HTTP handlers and
// middleware: the extraction request body and the error envelope every
// endpoint returns on failure.
//
// The error envelope is a single JSON object:
//
//	{
//	  "error": {
//	    "message": "transcript is 240000 characters after compaction, budget is 48000",
//	    "type": "input_too_large",
//	    "code": "transcript_too_large"
//	  }
//	}
//
// The type field determines the HTTP status code via HTTPStatusCode, so
// handlers build a response once and never pick status codes ad hoc.
package types
