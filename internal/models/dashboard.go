package models

// CategoryCount is the number of demandas in one category.
type CategoryCount struct {
	Categoria string `db:"categoria" json:"categoria"`
	Count     int    `db:"count" json:"count"`
}

// MonthlyEvolution counts demandas opened and resolved per month (YYYY-MM).
type MonthlyEvolution struct {
	Mes        string `db:"mes" json:"mes"`
	Abertas    int    `db:"abertas" json:"abertas"`
	Resolvidas int    `db:"resolvidas" json:"resolvidas"`
}

// StatusTotals aggregates demandas per status.
type StatusTotals struct {
	Total       int `db:"total"`
	Abertas     int `db:"abertas"`
	EmAndamento int `db:"em_andamento"`
	Resolvidas  int `db:"resolvidas"`
	// AvgResolutionDays is the mean of data_resolucao - data_criacao for resolved demandas.
	AvgResolutionDays float64 `db:"avg_resolution_days"`
}

// DashboardStats is the payload of the administrator dashboard.
type DashboardStats struct {
	TotalDemandas        int                `json:"total_demandas"`
	DemandasAbertas      int                `json:"demandas_abertas"`
	DemandasEmAndamento  int                `json:"demandas_em_andamento"`
	DemandasResolvidas   int                `json:"demandas_resolvidas"`
	TempoMedioResolucao  float64            `json:"tempo_medio_resolucao"`
	DemandasPorCategoria []CategoryCount    `json:"demandas_por_categoria"`
	EvolucaoMensal       []MonthlyEvolution `json:"evolucao_mensal"`
}
