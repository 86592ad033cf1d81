// Package classifier answers whether a camera image shows a cat.
//
// The security engine depends only on the Classifier interface. Fake returns a
// pseudo-random answer and is meant for demos and tests; Remote asks an HTTP
// label-detection service.
package classifier
