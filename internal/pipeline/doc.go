// Package pipeline turns user input into tagged MP3 files.
//
// ProcessInput and FromCSV classify free text and CSV rows into Requests.
// An Acquirer runs each request through a fixed stage sequence:
// provision, resolve, download, sanitize, infer, tag and record. Any stage
// failure is reported as a *StageError naming the stage. Run executes a
// batch on a bounded worker pool and returns results in submission order,
// while progress Events stream on a channel in completion order.
package pipeline
