package options

// TransitionKind classifies how a status value may be applied to an
// enrollment. Informational entries exist for menu grouping only and never
// write anything; RequiresDate entries need a secondary datum before the
// write can proceed.
type TransitionKind int

const (
	// TransitionDirect applies in a single write.
	TransitionDirect TransitionKind = iota
	// TransitionRequiresDate defers the write until a date is supplied.
	TransitionRequiresDate
	// TransitionInformational is a no-op menu entry.
	TransitionInformational
)

// DateKind names the secondary datum a gated transition is waiting for.
type DateKind string

const (
	DateKindResume   DateKind = "resume"
	DateKindStart    DateKind = "start"
	DateKindFinalize DateKind = "finalize"
)

// ActiveFutureArchived values an enrollment can carry.
const (
	StateActive   = "Active"
	StateFuture   = "Future"
	StateArchived = "Archived"
	StateNotSet   = "Not Set"
)

// StatusOption describes one entry of the enrollment status enumeration:
// display metadata plus the behaviour flags that drive the transition rules.
type StatusOption struct {
	Value                 string
	Category              string
	Color                 string
	AlertLevel            string
	ActiveFutureArchived  string // forced state on apply; empty leaves it alone
	AllowAutoStatusChange bool
	Transition            TransitionKind
	DateKind              DateKind // set when Transition == TransitionRequiresDate
}

var statusOptions = []StatusOption{
	{Value: "Newly Enrolled", Category: "Registration", Color: "#3B82F6", AlertLevel: "info", ActiveFutureArchived: StateActive, AllowAutoStatusChange: true, Transition: TransitionDirect},
	{Value: "Starting on (Date)", Category: "Registration", Color: "#14B8A6", AlertLevel: "info", ActiveFutureArchived: StateFuture, AllowAutoStatusChange: false, Transition: TransitionRequiresDate, DateKind: DateKindStart},
	{Value: "Active", Category: "Progressing", Color: "#10B981", AlertLevel: "ok", AllowAutoStatusChange: true, Transition: TransitionDirect},
	{Value: "Rocking it!", Category: "Progressing", Color: "#059669", AlertLevel: "ok", AllowAutoStatusChange: true, Transition: TransitionDirect},
	{Value: "Behind", Category: "Needs Attention", Color: "#F59E0B", AlertLevel: "warning", AllowAutoStatusChange: true, Transition: TransitionDirect},
	{Value: "Not Active", Category: "Needs Attention", Color: "#F97316", AlertLevel: "warning", AllowAutoStatusChange: true, Transition: TransitionDirect},
	{Value: "Inactive", Category: "Needs Attention", Color: "#EF4444", AlertLevel: "alert", AllowAutoStatusChange: false, Transition: TransitionDirect},
	{Value: "On Hold", Category: "Needs Attention", Color: "#8B5CF6", AlertLevel: "warning", AllowAutoStatusChange: false, Transition: TransitionDirect},
	{Value: "Resuming on (date)", Category: "Needs Attention", Color: "#6366F1", AlertLevel: "info", ActiveFutureArchived: StateActive, AllowAutoStatusChange: false, Transition: TransitionRequiresDate, DateKind: DateKindResume},
	{Value: "Pending Finalization", Category: "Completion", Color: "#0EA5E9", AlertLevel: "info", AllowAutoStatusChange: false, Transition: TransitionDirect},
	{Value: "Completed", Category: "Completion", Color: "#22C55E", AlertLevel: "ok", ActiveFutureArchived: StateArchived, AllowAutoStatusChange: false, Transition: TransitionRequiresDate, DateKind: DateKindFinalize},
	{Value: "Unenrolled", Category: "Completion", Color: "#6B7280", AlertLevel: "alert", ActiveFutureArchived: StateArchived, AllowAutoStatusChange: false, Transition: TransitionDirect},
	{Value: "Withdrawn", Category: "Completion", Color: "#9CA3AF", AlertLevel: "alert", ActiveFutureArchived: StateArchived, AllowAutoStatusChange: true, Transition: TransitionDirect},
	{Value: "Hasn't Started", Category: "Registration", Color: "#94A3B8", AlertLevel: "info", AllowAutoStatusChange: false, Transition: TransitionInformational},
	{Value: "Review Needed", Category: "Needs Attention", Color: "#FACC15", AlertLevel: "warning", AllowAutoStatusChange: false, Transition: TransitionInformational},
}

// StatusOptions returns the configured status enumeration in menu order.
func StatusOptions() []StatusOption {
	out := make([]StatusOption, len(statusOptions))
	copy(out, statusOptions)
	return out
}

// FindStatus looks up the option for a status value.
func FindStatus(value string) (StatusOption, bool) {
	for _, opt := range statusOptions {
		if opt.Value == value {
			return opt, true
		}
	}
	return StatusOption{}, false
}

// States returns the legal ActiveFutureArchived values.
func States() []string {
	return []string{StateActive, StateFuture, StateArchived, StateNotSet}
}

// IsState reports whether value is a legal ActiveFutureArchived value.
func IsState(value string) bool {
	for _, s := range States() {
		if s == value {
			return true
		}
	}
	return false
}
