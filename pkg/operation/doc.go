/*
Package operation implements the batch driver that finds and fixes legacy
defects in a tree of HTML files.

	+-------------+      +-------------+      +-------------+      +-------------+
	|    Scan     | ---> |   Preview   |      |    Apply    | ---> |   Verify    |
	| (read all)  |      | (diff only) |      | (write back)|      | (re-scan)   |
	+------+------+      +-------------+      +------+------+      +-------------+
	       |                                         ^
	       +-----------------------------------------+

🎯 Purpose:
- Walks the target directory and reads every candidate file
- Runs each enabled defect over the file text, in registry order
- Writes back only files whose text actually changed
- Reports counts, failures and residuals in a RunSummary

🔄 Flow:
1. Scan builds one FileTask per file before anything is written
2. Preview prints the first few diffs and stops
3. Apply writes changed files in scan order, up to the limit
4. Verify scans again and reports every file still flagged

⚡ Key Rules:
- A file with no hits is never written
- A file whose rewrite equals its original text is a false positive, not a write
- One unreadable or unwritable file is recorded and the batch moves on
- Checkpoint failures are logged, never fatal

🤝 Interfaces:
- status.FileManager: reads and atomic writes
- status.StatusReporter: per-file status and progress
- checkpoint.Checkpointer: snapshots every N written files
- Observer: per-file callback for console output

🔍 Example:

	drv, err := operation.New(operation.Options{
		Root:    root,
		Defects: defect.Builtins(),
		Files:   status.New(root, &logger),
	})

	summary, err := drv.Run(ctx, operation.Preview{Sample: 5})
	summary, err = drv.Run(ctx, operation.Apply{Limit: 100, Validate: true})
*/
package operation
