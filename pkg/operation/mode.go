package operation

// 🎛️ Mode selects what a run does after scanning. It is one of Preview,
// Apply or Verify.
type Mode interface {
	Name() string
	isMode()
}

// Preview reports what would change without writing. Sample is the number of
// diffs printed.
type Preview struct {
	Sample int
}

// Apply writes fixed files back. Limit caps the number of files written
// (zero or less means no cap). Validate re-scans afterwards. Backup keeps a
// copy of every file before it is replaced.
type Apply struct {
	Limit    int
	Validate bool
	Backup   bool
}

// Verify only scans and reports every file that is still flagged.
type Verify struct{}

func (Preview) Name() string { return "preview" }
func (Apply) Name() string   { return "apply" }
func (Verify) Name() string  { return "verify" }

func (Preview) isMode() {}
func (Apply) isMode()   {}
func (Verify) isMode()  {}
