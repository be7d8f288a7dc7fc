package session

// Variant selects how a toast is rendered.
type Variant string

const (
	VariantDefault     Variant = "default"
	VariantDestructive Variant = "destructive"
)

// Toast is a short human-readable outcome of a session operation.
type Toast struct {
	Title       string
	Description string
	Variant     Variant
}

// Notifier surfaces toasts to the user. Implementations must not call back
// into the Store synchronously with a mutating operation.
type Notifier interface {
	Notify(t Toast)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Toast)

// Notify calls f(t).
func (f NotifierFunc) Notify(t Toast) { f(t) }

type nopNotifier struct{}

func (nopNotifier) Notify(Toast) {}

func successToast(title, description string) Toast {
	return Toast{Title: title, Description: description, Variant: VariantDefault}
}

func failureToast(title string, err error) Toast {
	return Toast{Title: title, Description: userMessage(err), Variant: VariantDestructive}
}
