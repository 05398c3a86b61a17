// Package batchengine implements the stage-first batch scheduler: ASR runs
// for every item before separation begins for any item, so early SRTs are
// downloadable while the model-amortizing ASR worker keeps running and
// separation is still pending.
//
// Per-item failures are isolated — one item's error never stops the loop
// over the rest — and cancellation is cooperative, checked between items
// rather than during an in-flight engine call.
package batchengine
