package proctor

import (
	"sync"

	"github.com/stemsi/exstem-client/internal/model"
)

// Notice is the single pending violation or disqualification notification.
type Notice struct {
	Type            model.ViolationType
	Title           string
	Message         string
	TotalViolations int
	Disqualified    bool
}

// Gate holds at most one notice pending display. Show replaces the current
// notice, it never queues: the UI always reflects the most recent violation
// and the latest cumulative count.
//
// Once a disqualification notice is shown, Close becomes a no-op. A
// disqualified attempt must not be dismissible back into answering; the only
// way out is navigating off the exam screen, which tears the gate down.
type Gate struct {
	mu      sync.Mutex
	visible bool
	notice  Notice
	final   bool
	onShow  func(Notice)
}

// NewGate creates an empty gate.
func NewGate() *Gate {
	return &Gate{}
}

// SetHandler installs a hook invoked on every Show. Used by the UI layer to
// interrupt whatever the student is doing.
func (g *Gate) SetHandler(fn func(Notice)) {
	g.mu.Lock()
	g.onShow = fn
	g.mu.Unlock()
}

// Show replaces the pending notice with n and marks the gate visible.
func (g *Gate) Show(n Notice) {
	g.mu.Lock()
	g.notice = n
	g.visible = true
	if n.Disqualified {
		g.final = true
	}
	fn := g.onShow
	g.mu.Unlock()

	if fn != nil {
		fn(n)
	}
}

// Close dismisses the current notice. Dismissing a disqualification notice
// is refused; Close reports whether the gate is now hidden.
func (g *Gate) Close() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.final {
		return false
	}
	g.visible = false
	return true
}

// Current returns the pending notice and whether it is visible.
func (g *Gate) Current() (Notice, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.notice, g.visible
}

// violationNotice builds the user-facing notice for an ordinary violation.
func violationNotice(t model.ViolationType, total int) Notice {
	return Notice{
		Type:            t,
		Title:           "Pelanggaran Terdeteksi",
		Message:         violationMessage(t),
		TotalViolations: total,
	}
}

// disqualifiedNotice builds the terminal notice shown when the server flags
// the attempt as automatically disqualified.
func disqualifiedNotice(total int) Notice {
	return Notice{
		Title:           "Diskualifikasi",
		Message:         "Anda telah didiskualifikasi dari ujian ini karena pelanggaran berulang.",
		TotalViolations: total,
		Disqualified:    true,
	}
}

func violationMessage(t model.ViolationType) string {
	switch t {
	case model.ViolationNoFace:
		return "Wajah Anda tidak terdeteksi di kamera. Pastikan wajah Anda terlihat."
	case model.ViolationMultipleFaces:
		return "Lebih dari satu wajah terdeteksi di kamera."
	case model.ViolationGazeAway:
		return "Pandangan Anda terdeteksi menjauh dari layar."
	case model.ViolationUnknownObject:
		return "Objek mencurigakan terdeteksi di kamera."
	default:
		return "Pelanggaran pengawasan terdeteksi."
	}
}
