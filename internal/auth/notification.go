package auth

import "errors"

// Notification is a transient toast shown to the learner.
type Notification struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Variant     string `json:"variant"`
}

const (
	VariantDefault     = "default"
	VariantDestructive = "destructive"
)

var (
	loginNotification = Notification{
		Title:       "¡Bienvenido de vuelta!",
		Description: "Has iniciado sesión correctamente.",
		Variant:     VariantDefault,
	}
	registerNotification = Notification{
		Title:       "¡Cuenta creada!",
		Description: "Bienvenido a TechLearn AI. ¡Comienza tu aprendizaje!",
		Variant:     VariantDefault,
	}
	logoutNotification = Notification{
		Title:       "Sesión cerrada",
		Description: "¡Hasta pronto! Vuelve cuando quieras seguir aprendiendo.",
		Variant:     VariantDefault,
	}
)

// LoginNotification is shown after a successful login.
func LoginNotification() Notification { return loginNotification }

// RegisterNotification is shown after a successful registration.
func RegisterNotification() Notification { return registerNotification }

// LogoutNotification is shown after logout.
func LogoutNotification() Notification { return logoutNotification }

// ErrorNotification returns the toast for a rejected form.
func ErrorNotification(err error) Notification {
	n := Notification{Title: "Error", Variant: VariantDestructive}
	switch {
	case errors.Is(err, ErrPasswordMismatch):
		n.Description = "Las contraseñas no coinciden."
	case errors.Is(err, ErrMissingField):
		n.Description = "Completa todos los campos."
	default:
		n.Description = "No se pudo completar la operación."
	}
	return n
}
