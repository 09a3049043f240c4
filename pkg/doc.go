// Package pkg holds the libraries behind the vectorize service.
//
// # Overview
//
// Vectorize turns raster images into closed vector curves and emits them as
// a normalized SVG document. The packages split along the data flow:
//
//	image bytes
//	     ↓  [raster]   decode, composite, autocrop, grayscale, smooth, threshold
//	bitmap
//	     ↓  [trace]    potrace-style contour tracing
//	curves
//	     ↓  [svg]      normalize into a size×size square, serialize, style
//	SVG document
//
// [pipeline] ties the stages together and adds the cached, concurrency
// bounded [pipeline.Runner]. Supporting packages:
//
//   - [cache]: artifact cache backends (none, file, redis)
//   - [fetch]: remote image download with size cap and retry
//   - [httputil]: retry with exponential backoff
//   - [errors]: error codes shared by the CLI and the API
//   - [config]: service configuration
//   - [preview]: SVG to PNG rasterization
//   - [observability]: trace, cache and HTTP hooks
//   - [buildinfo]: version information
package pkg
