// Package tracker implements the inventory view-model: the category filter,
// the live item list, the add/edit form state machine, free-text search and
// transient notices. All state lives in one ViewModel struct and every
// mutation is a discrete message applied sequentially through Update, which
// returns asynchronous work as a command to be run off the loop. The store
// snapshot feed is the only path that ever replaces the item lists.
package tracker

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/danzastock/danzastock/internal/model"
)

// Store is the shared-collection contract the view-model writes through.
// The id is assigned by the store on creation and is opaque to the caller.
type Store interface {
	Create(ctx context.Context, fields map[string]any) (string, error)
	Overwrite(ctx context.Context, id string, fields map[string]any) error
	Delete(ctx context.Context, id string) error
}

// Notice kinds.
const (
	NoticeSuccess = "success"
	NoticeError   = "error"
)

// NoticeDuration is how long a notice stays visible before auto-clearing.
const NoticeDuration = 3 * time.Second

// Notice is a transient user-facing message. A newer notice replaces the
// current one immediately; there is no queue.
type Notice struct {
	Text string
	Kind string
}

// Form holds the raw in-progress form field values, as typed by the user.
type Form struct {
	Name     string
	Quantity string
	LoanedTo string
}

// Msg is a discrete view-model event.
type Msg interface{ isMsg() }

// Cmd is asynchronous work produced by Update. The caller runs it off the
// loop and feeds the resulting message back in.
type Cmd func() Msg

// ConnectedMsg reports that identity was acquired and the store is usable.
type ConnectedMsg struct{ Store Store }

// ConnectFailedMsg reports that the identity/store bootstrap failed. The
// store handle stays unset and all writes short-circuit from then on.
type ConnectFailedMsg struct{ Err error }

// SwitchCategoryMsg activates a category view. Switching always resets the
// form to add mode so a cross-category edit can't be submitted against the
// wrong shape.
type SwitchCategoryMsg struct{ View string }

// BeginEditMsg puts the form into edit mode for an item.
type BeginEditMsg struct{ Item model.Item }

// CancelEditMsg leaves edit mode without touching the store.
type CancelEditMsg struct{}

// SetStatusMsg tracks the status control independently of the form, because
// it drives conditional rendering of the loaned-to field before submission.
type SetStatusMsg struct{ Status string }

// SetSearchMsg updates the free-text filter.
type SetSearchMsg struct{ Query string }

// SetFormMsg replaces the in-progress form field values.
type SetFormMsg struct{ Form Form }

// SubmitMsg submits the form: one overwrite when editing, one create otherwise.
type SubmitMsg struct{}

// RemoveMsg deletes an item by id. No confirmation step; removal is
// immediate from the view's perspective.
type RemoveMsg struct{ ID string }

// SnapshotMsg carries a full store snapshot, pushed on every change
// including the echo of this client's own writes.
type SnapshotMsg struct{ Items []model.Item }

// StoreErrorMsg reports a subscription error.
type StoreErrorMsg struct{ Err error }

type savedMsg struct{ edited bool }
type saveFailedMsg struct{ err error }
type removeDoneMsg struct{ err error }
type noticeExpiredMsg struct{ seq int }

func (ConnectedMsg) isMsg()      {}
func (ConnectFailedMsg) isMsg()  {}
func (SwitchCategoryMsg) isMsg() {}
func (BeginEditMsg) isMsg()      {}
func (CancelEditMsg) isMsg()     {}
func (SetStatusMsg) isMsg()      {}
func (SetSearchMsg) isMsg()      {}
func (SetFormMsg) isMsg()        {}
func (SubmitMsg) isMsg()         {}
func (RemoveMsg) isMsg()         {}
func (SnapshotMsg) isMsg()       {}
func (StoreErrorMsg) isMsg()     {}
func (savedMsg) isMsg()          {}
func (saveFailedMsg) isMsg()     {}
func (removeDoneMsg) isMsg()     {}
func (noticeExpiredMsg) isMsg()  {}

// ViewModel is the single in-process instance of the inventory view state.
// It is not safe for concurrent use: apply messages from one goroutine.
type ViewModel struct {
	ctx       context.Context
	store     Store
	connected bool

	currentView string
	items       map[string][]model.Item
	editing     *model.Item
	form        Form
	statusValue string
	searchQuery string
	notice      *Notice
	noticeSeq   int
	saving      bool
}

// New creates a ViewModel showing the materials view in add mode. The
// context bounds all store calls issued by commands.
func New(ctx context.Context) *ViewModel {
	return &ViewModel{
		ctx:         ctx,
		currentView: model.CategoryMaterials,
		statusValue: model.StatusStorage,
		items:       map[string][]model.Item{},
	}
}

// Update applies one message and returns follow-up work, if any.
func (vm *ViewModel) Update(msg Msg) Cmd {
	switch m := msg.(type) {
	case ConnectedMsg:
		vm.store = m.Store
		vm.connected = true
		return nil

	case ConnectFailedMsg:
		vm.connected = false
		return vm.notify("Error al inicializar la base de datos.", NoticeError)

	case SwitchCategoryMsg:
		if !model.ValidCategory(m.View) {
			return nil
		}
		vm.currentView = m.View
		vm.searchQuery = ""
		vm.resetForm()
		return nil

	case BeginEditMsg:
		item := m.Item
		vm.editing = &item
		vm.form = Form{Name: item.Name, LoanedTo: item.LoanedTo}
		if item.Quantity != nil {
			vm.form.Quantity = strconv.Itoa(*item.Quantity)
		}
		vm.statusValue = item.Status
		return nil

	case CancelEditMsg:
		vm.resetForm()
		return nil

	case SetStatusMsg:
		if !model.ValidStatus(m.Status) {
			return nil
		}
		// Repair is not selectable for costumes.
		if m.Status == model.StatusRepair && vm.currentView == model.CategoryCostumes {
			return nil
		}
		vm.statusValue = m.Status
		return nil

	case SetSearchMsg:
		vm.searchQuery = m.Query
		return nil

	case SetFormMsg:
		vm.form = m.Form
		return nil

	case SubmitMsg:
		return vm.submit()

	case savedMsg:
		vm.saving = false
		text := "Artículo agregado correctamente."
		if m.edited {
			text = "Artículo editado correctamente."
		}
		vm.resetForm()
		return vm.notify(text, NoticeSuccess)

	case saveFailedMsg:
		// Keep the form and edit state so the user's input is not lost.
		vm.saving = false
		return vm.notify("Error al guardar el artículo.", NoticeError)

	case RemoveMsg:
		return vm.remove(m.ID)

	case removeDoneMsg:
		if m.err != nil {
			return vm.notify("Error al eliminar el artículo.", NoticeError)
		}
		return vm.notify("Artículo eliminado correctamente.", NoticeSuccess)

	case SnapshotMsg:
		materials, costumes := model.Partition(m.Items)
		vm.items = map[string][]model.Item{
			model.CategoryMaterials: materials,
			model.CategoryCostumes:  costumes,
		}
		return nil

	case StoreErrorMsg:
		return vm.notify("Error al cargar los datos.", NoticeError)

	case noticeExpiredMsg:
		if m.seq == vm.noticeSeq {
			vm.notice = nil
		}
		return nil
	}

	return nil
}

// submit builds the item payload from the form fields plus the independently
// tracked status value and issues exactly one store write.
func (vm *ViewModel) submit() Cmd {
	if !vm.connected || vm.store == nil {
		return vm.notify("Error de conexión con la base de datos.", NoticeError)
	}
	if vm.saving {
		// A submission is already in flight; ignore until it settles.
		return nil
	}

	name := strings.TrimSpace(vm.form.Name)
	if name == "" {
		return vm.notify("El nombre es obligatorio.", NoticeError)
	}

	payload := map[string]any{
		"name":   name,
		"status": vm.statusValue,
		// The loaned-to control is hidden unless the status is Loaned, but
		// its value is submitted as-is: hidden, not cleared.
		"loanedTo": vm.form.LoanedTo,
		"category": vm.currentView,
	}
	if vm.currentView == model.CategoryMaterials {
		qty, err := strconv.Atoi(strings.TrimSpace(vm.form.Quantity))
		if err != nil || qty < 0 {
			return vm.notify("Cantidad no válida.", NoticeError)
		}
		payload["quantity"] = qty
	}

	vm.saving = true
	store, ctx := vm.store, vm.ctx

	if vm.editing != nil {
		id := vm.editing.ID
		return func() Msg {
			if err := store.Overwrite(ctx, id, payload); err != nil {
				return saveFailedMsg{err: err}
			}
			return savedMsg{edited: true}
		}
	}

	return func() Msg {
		if _, err := store.Create(ctx, payload); err != nil {
			return saveFailedMsg{err: err}
		}
		return savedMsg{}
	}
}

func (vm *ViewModel) remove(id string) Cmd {
	if !vm.connected || vm.store == nil {
		return vm.notify("Error de conexión con la base de datos.", NoticeError)
	}

	store, ctx := vm.store, vm.ctx
	return func() Msg {
		return removeDoneMsg{err: store.Delete(ctx, id)}
	}
}

// notify shows a notice and schedules its expiry. A newer notice bumps the
// sequence so a stale expiry never clears it early.
func (vm *ViewModel) notify(text, kind string) Cmd {
	vm.noticeSeq++
	seq := vm.noticeSeq
	vm.notice = &Notice{Text: text, Kind: kind}
	return func() Msg {
		time.Sleep(NoticeDuration)
		return noticeExpiredMsg{seq: seq}
	}
}

// resetForm returns the form to add mode with the default status.
func (vm *ViewModel) resetForm() {
	vm.editing = nil
	vm.form = Form{}
	vm.statusValue = model.StatusStorage
}

// Connected reports whether the identity/store bootstrap completed.
func (vm *ViewModel) Connected() bool { return vm.connected }

// CurrentView returns the active category.
func (vm *ViewModel) CurrentView() string { return vm.currentView }

// Editing returns a copy of the item being edited, or nil in add mode.
func (vm *ViewModel) Editing() *model.Item {
	if vm.editing == nil {
		return nil
	}
	item := *vm.editing
	return &item
}

// Form returns the in-progress form field values.
func (vm *ViewModel) Form() Form { return vm.form }

// StatusValue returns the independently tracked status control value.
func (vm *ViewModel) StatusValue() string { return vm.statusValue }

// SearchQuery returns the free-text filter.
func (vm *ViewModel) SearchQuery() string { return vm.searchQuery }

// Saving reports whether a submission is in flight.
func (vm *ViewModel) Saving() bool { return vm.saving }

// Notice returns the current transient message, or nil.
func (vm *ViewModel) Notice() *Notice { return vm.notice }

// Items returns the last-known snapshot for a category.
func (vm *ViewModel) Items(view string) []model.Item { return vm.items[view] }

// FilteredItems returns the current view's items whose name contains the
// search query, case-insensitively. With an empty query it is the full list.
func (vm *ViewModel) FilteredItems() []model.Item {
	items := vm.items[vm.currentView]
	if vm.searchQuery == "" {
		return items
	}

	query := strings.ToLower(vm.searchQuery)
	var matched []model.Item
	for _, item := range items {
		if strings.Contains(strings.ToLower(item.Name), query) {
			matched = append(matched, item)
		}
	}
	return matched
}
