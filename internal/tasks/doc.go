// Package tasks provides the built-in task catalog.
//
// Register binds every task name to a factory on an explicit registry. Each
// task validates its own step config through task.Params and reads or writes
// the shared State under the keys named in that config.
//
// Loaders (DirectoryLoader, TextFileSplitterTask, AudioTranscribeTask) produce
// document lists: {filename, filepath, content} records. The LLM tasks
// consume either a single string (LLMTransformTask) or a document list
// (BatchLLMTask). TextAggregator and ReportWriterTask fold results into text
// and files. ContextSaveTask and ContextLoadTask checkpoint the State, and
// CodebaseSnapshotTask turns a source tree into one markdown document.
//
// Per-item failures inside list-processing tasks are downgraded: loaders and
// transcription log and skip the file, BatchLLMTask substitutes an inline
// error marker. Everything else fails the step.
package tasks
