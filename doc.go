// Package blobkit is a resilient upload/delete client for binary objects
// stored in an S3-compatible object store, with a managed-platform object
// store as fallback.
//
// A single logical "store this file" operation succeeds if either backend is
// reachable. The Uploader composes a per-backend circuit breaker, a bounded
// retry policy with failure classification, a cached credential provider and
// a from-scratch request signer into one resilient operation:
//
//	provider := credentials.NewLocal()
//	up := blobkit.New(provider,
//	    s3api.New(),
//	    platform.New(storeURL, storeToken),
//	    blobkit.WithBucketPolicy("posts", blobkit.Policy{
//	        MaxSize:          5 << 20,
//	        AllowedMIMETypes: []string{"image/jpeg", "image/png"},
//	    }),
//	)
//
//	res, err := up.Upload(ctx, "posts", blobkit.NewObjectPath("abc", "cat.jpg"), blobkit.File{
//	    Data:     data,
//	    MIMEType: "image/jpeg",
//	})
//
// Expected failures never panic and never surface raw backend errors: Upload
// returns a *Error with a short human-readable message, the failure kind and
// whether retrying could help.
package blobkit
