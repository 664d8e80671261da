package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// DemandaStatus is the lifecycle state of a citizen report.
type DemandaStatus string

const (
	StatusAberta      DemandaStatus = "aberta"
	StatusEmAndamento DemandaStatus = "em_andamento"
	StatusResolvida   DemandaStatus = "resolvida"
)

// Valid reports whether s is a known status.
func (s DemandaStatus) Valid() bool {
	switch s {
	case StatusAberta, StatusEmAndamento, StatusResolvida:
		return true
	}
	return false
}

// Location is a latitude/longitude pair stored as jsonb.
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Value implements driver.Valuer.
func (l Location) Value() (driver.Value, error) {
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (l *Location) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*l = Location{}
		return nil
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("unsupported localizacao type %T", src)
	}
}

// Demanda is a location-tagged citizen complaint.
type Demanda struct {
	ID            string        `db:"id" json:"id"`
	UserID        *string       `db:"user_id" json:"user_id"`
	FotoURL       *string       `db:"foto_url" json:"foto_url"`
	Categoria     string        `db:"categoria" json:"categoria"`
	Descricao     *string       `db:"descricao" json:"descricao"`
	Localizacao   Location      `db:"localizacao" json:"localizacao"`
	Endereco      *string       `db:"endereco" json:"endereco"`
	Bairro        *string       `db:"bairro" json:"bairro"`
	DataCriacao   time.Time     `db:"data_criacao" json:"data_criacao"`
	DataResolucao *time.Time    `db:"data_resolucao" json:"data_resolucao"`
	Status        DemandaStatus `db:"status" json:"status"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time     `db:"updated_at" json:"updated_at"`
}

// ApplyStatus moves the demanda to status. Resolving stamps the resolution time,
// any other status clears it.
func (d *Demanda) ApplyStatus(status DemandaStatus, now time.Time) {
	d.Status = status
	if status == StatusResolvida {
		resolved := now.UTC()
		d.DataResolucao = &resolved
		return
	}
	d.DataResolucao = nil
}

// DemandaFilter narrows the dashboard listing and exports.
type DemandaFilter struct {
	Status    []DemandaStatus
	Categoria string
	Bairro    string
	Search    string
	From      *time.Time
	To        *time.Time
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
