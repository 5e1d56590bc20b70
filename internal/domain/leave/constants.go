package leave

// Option pairs an enum id with its display label
type Option struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

var TypeLabels = []Option{
	{ID: string(LeaveTypeKids), Label: "Enfants"},
	{ID: string(LeaveTypeSchoolReview), Label: "Examens"},
	{ID: string(LeaveTypeSickness), Label: "Maladie"},
	{ID: string(LeaveTypeVacation), Label: "Vacances"},
}

var StatusLabels = []Option{
	{ID: string(LeaveRequestStatusApproved), Label: "Confirmé"},
	{ID: string(LeaveRequestStatusCancelled), Label: "Annulé"},
	{ID: string(LeaveRequestStatusPending), Label: "En attente"},
	{ID: string(LeaveRequestStatusPendingManager), Label: "En attente du manager"},
	{ID: string(LeaveRequestStatusRefused), Label: "Refusé"},
}

var TimeSlotLabels = []Option{
	{ID: string(TimeSlotFullDay), Label: "Jour entier"},
	{ID: string(TimeSlotMorning), Label: "Matin seulement"},
	{ID: string(TimeSlotAfternoon), Label: "Après-midi seulement"},
}

// Label finds the label for id, falling back to the id itself
func Label(options []Option, id string) string {
	for _, o := range options {
		if o.ID == id {
			return o.Label
		}
	}
	return id
}

type ConstantsResponse struct {
	Types     []Option `json:"types"`
	Statuses  []Option `json:"statuses"`
	TimeSlots []Option `json:"time_slots"`
}

func Constants() ConstantsResponse {
	return ConstantsResponse{
		Types:     TypeLabels,
		Statuses:  StatusLabels,
		TimeSlots: TimeSlotLabels,
	}
}
