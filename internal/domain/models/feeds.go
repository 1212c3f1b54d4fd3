// internal/domain/models/feeds.go
package models

// RequestEntry is one row of the read-only requests ("solicitudes") sheet.
type RequestEntry struct {
	Fecha           string `json:"Fecha"`
	Usuario         string `json:"usuario"`
	Skill           string `json:"skill"`
	MensajeOriginal string `json:"mensaje_original"`
}

// DashboardEntry is one row of the read-only dashboard sheet.
type DashboardEntry struct {
	GroupID         string `json:"GroupId"`
	Solicitante     string `json:"Solicitante"`
	Candidato       string `json:"Candidato"`
	MensajeOriginal string `json:"MensajeOriginal"`
}
