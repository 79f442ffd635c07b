// Package report records audit progress.
//
// Recorders implement [audit.Recorder] and receive one [audit.StageReport]
// per stage and the final [audit.Result]. [JSONLRecorder] appends JSON
// lines to a writer and [MongoRecorder] inserts documents into MongoDB.
// [Multi] fans out to several recorders.
package report
