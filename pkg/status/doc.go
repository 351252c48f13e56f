/*
Package status owns file storage, per-file status and run reporting for htmlfix.

	            +-------------+
	            |   Status    |
	            +------+------+
	                   |
	      +------------+------------+
	      |            |            |
	+-----+-----+ +----+----+ +-----+-----+
	|   Files   | |Progress | |  Summary  |
	| (Storage) | | (Logs)  | | (Report)  |
	+-----------+ +---------+ +-----------+

🎯 Purpose:
- Reads files byte for byte, whatever their encoding
- Writes files atomically (temp file + rename) and keeps their permissions
- Tracks what a run did with every file
- Renders the RunSummary as a table or as JSON

🔄 Flow:
1. The operation driver reads every candidate through FileManager
2. Fixed content goes back through WriteFileAtomic
3. Each file's outcome is tracked with TrackFile
4. The RunSummary is rendered once the run ends, errors included

🤝 Interfaces:
- FileManager: reads, atomic writes, backups, writable probe
- StatusReporter: file tracking and progress
- FileFormatter: status lines, progress lines and diffs

🚧 Open items:
1. Progress:
  - Progress reaches the info level every 100 files ✅
  - A pterm progress bar for interactive terminals

2. Storage:
  - Backups are plain copies next to the file ✅
  - Restore walks the tree for backups ✅

🔍 Example:

	mgr := status.New(root, &logger)

	content, err := mgr.ReadFile(ctx, path)
	err = mgr.WriteFileAtomic(ctx, path, fixed)

	mgr.TrackFile(ctx, path, status.FileInfo{Path: path, Status: status.StatusModified})

	err = status.RenderSummary(os.Stdout, summary)
*/
package status
