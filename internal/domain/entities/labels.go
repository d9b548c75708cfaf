package entities

// Display labels used by the exporters and the CLI. The agenda is a
// Spanish-language tool, so labels stay in Spanish while the stored
// enum values remain the ASCII identifiers.

// Label returns the human-readable category name.
func (c Category) Label() string {
	switch c {
	case CategoryPNTF:
		return "PNTF"
	case CategoryMeeting:
		return "Reunión"
	case CategoryTraining:
		return "Capacitación"
	case CategoryDesign:
		return "Diseño"
	case CategoryReport:
		return "Informe"
	case CategorySystem:
		return "Sistema"
	case CategoryOther:
		return "Otra"
	default:
		return string(c)
	}
}

// Label returns the human-readable priority name.
func (p Priority) Label() string {
	switch p {
	case PriorityUrgent:
		return "Urgente"
	case PriorityHigh:
		return "Alta"
	case PriorityMedium:
		return "Media"
	case PriorityLow:
		return "Baja"
	default:
		return string(p)
	}
}

// Label returns the human-readable status name.
func (s Status) Label() string {
	switch s {
	case StatusPending:
		return "Pendiente"
	case StatusInProgress:
		return "En Progreso"
	case StatusCompleted:
		return "Completado"
	case StatusCancelled:
		return "Cancelado"
	default:
		return string(s)
	}
}
