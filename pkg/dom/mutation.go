package dom

// MutationKind identifies a recorded DOM change.
type MutationKind uint8

const (
	MutationInsert     MutationKind = 0x01 // Node inserted into a parent
	MutationRemove     MutationKind = 0x02 // Node detached from its parent
	MutationMove       MutationKind = 0x03 // Attached node repositioned
	MutationSetAttr    MutationKind = 0x04 // Attribute set or changed
	MutationRemoveAttr MutationKind = 0x05 // Attribute removed
	MutationSetText    MutationKind = 0x06 // Text node content changed
)

// String returns the string representation of the MutationKind.
func (k MutationKind) String() string {
	switch k {
	case MutationInsert:
		return "Insert"
	case MutationRemove:
		return "Remove"
	case MutationMove:
		return "Move"
	case MutationSetAttr:
		return "SetAttr"
	case MutationRemoveAttr:
		return "RemoveAttr"
	case MutationSetText:
		return "SetText"
	default:
		return "Unknown"
	}
}

// MutationRecord describes one DOM change.
//
// Path, ParentPath and Index are only filled while at least one observer is
// registered. They are computed at the time of the change: Path is the
// target's location before the change, ParentPath and Index its location
// after an insert or move. For an inserted node, HTML carries its serialized
// subtree and Snapshot a detached deep copy of it. Snapshot keeps empty and
// adjacent text nodes that HTML cannot represent.
type MutationRecord struct {
	Kind   MutationKind
	Node   *Node  // Inserted, removed or moved node; attribute/text target
	Parent *Node  // Parent for insert/move/remove
	Before *Node  // Reference sibling for insert/move (nil = append)
	Attr   string // Attribute name for SetAttr/RemoveAttr
	Value  string // Attribute value or text content

	Path       []int
	ParentPath []int
	Index      int
	HTML       string
	Snapshot   *Node
}

// Observer receives batches of mutation records.
type Observer func(records []MutationRecord)

// Observe registers an observer and returns a function that removes it.
func (d *Document) Observe(fn Observer) (cancel func()) {
	d.nextObserver++
	id := d.nextObserver
	d.observers[id] = fn
	d.observerOrder = append(d.observerOrder, id)
	return func() {
		if _, ok := d.observers[id]; !ok {
			return
		}
		delete(d.observers, id)
		for i, oid := range d.observerOrder {
			if oid == id {
				d.observerOrder = append(d.observerOrder[:i], d.observerOrder[i+1:]...)
				break
			}
		}
	}
}

// BeginBatch starts collecting mutation records. Batches nest; observers are
// notified when the outermost batch ends.
func (d *Document) BeginBatch() {
	d.batchDepth++
}

// EndBatch ends a batch started with BeginBatch.
func (d *Document) EndBatch() {
	if d.batchDepth == 0 {
		return
	}
	d.batchDepth--
	if d.batchDepth == 0 {
		d.flush()
	}
}

// Batch runs fn inside a batch.
func (d *Document) Batch(fn func()) {
	d.BeginBatch()
	defer d.EndBatch()
	fn()
}

// MutationCount returns the number of mutations applied to attached nodes
// since the document was created. Observers are not required.
func (d *Document) MutationCount() uint64 {
	return d.mutations
}

func (d *Document) observing() bool {
	return len(d.observers) > 0
}

func (d *Document) record(rec MutationRecord) {
	// Changes to detached nodes are invisible, as with browser observers.
	target := rec.Node
	if rec.Parent != nil {
		target = rec.Parent
	}
	if !d.Contains(target) {
		return
	}
	d.mutations++
	if !d.observing() {
		return
	}
	d.pending = append(d.pending, rec)
	if d.batchDepth == 0 {
		d.flush()
	}
}

func (d *Document) flush() {
	if len(d.pending) == 0 {
		return
	}
	records := d.pending
	d.pending = nil
	for _, id := range append([]int(nil), d.observerOrder...) {
		if fn, ok := d.observers[id]; ok {
			fn(records)
		}
	}
}
