package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/portal-cidadao-api/internal/models"
)

const demandaColumns = "id, user_id, foto_url, categoria, descricao, localizacao, endereco, bairro, data_criacao, data_resolucao, status, created_at, updated_at"

// DemandaRepository manages persistence for citizen reports.
type DemandaRepository struct {
	db *sqlx.DB
}

// NewDemandaRepository constructs a DemandaRepository.
func NewDemandaRepository(db *sqlx.DB) *DemandaRepository {
	return &DemandaRepository{db: db}
}

// whereCriteria renders the purge predicate. Args are appended to the given slice.
func whereCriteria(c models.DemandaCriteria, args []interface{}) (string, []interface{}) {
	conditions := []string{"1=1"}
	if c.UserIDs != nil {
		args = append(args, pq.Array(c.UserIDs))
		conditions = append(conditions, fmt.Sprintf("user_id = ANY($%d)", len(args)))
	}
	if c.Descricao != "" {
		args = append(args, "%"+c.Descricao+"%")
		conditions = append(conditions, fmt.Sprintf("descricao ILIKE $%d", len(args)))
	}
	if len(c.Status) > 0 {
		args = append(args, pq.Array(c.Status))
		conditions = append(conditions, fmt.Sprintf("status = ANY($%d)", len(args)))
	}
	if c.From != nil {
		args = append(args, *c.From)
		conditions = append(conditions, fmt.Sprintf("data_criacao >= $%d", len(args)))
	}
	if c.To != nil {
		args = append(args, *c.To)
		conditions = append(conditions, fmt.Sprintf("data_criacao <= $%d", len(args)))
	}
	return strings.Join(conditions, " AND "), args
}

// CountMatching returns how many demandas satisfy the criteria.
func (r *DemandaRepository) CountMatching(ctx context.Context, c models.DemandaCriteria) (int, error) {
	where, args := whereCriteria(c, nil)
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM demandas WHERE "+where, args...); err != nil {
		return 0, fmt.Errorf("count demandas: %w", err)
	}
	return total, nil
}

// PageMatching returns one page of matching ids and photo references ordered by id.
func (r *DemandaRepository) PageMatching(ctx context.Context, c models.DemandaCriteria, limit, offset int) ([]models.PurgeCandidate, error) {
	where, args := whereCriteria(c, nil)
	query := fmt.Sprintf("SELECT id, foto_url FROM demandas WHERE %s ORDER BY id LIMIT %d OFFSET %d", where, limit, offset)
	var rows []models.PurgeCandidate
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("page demandas: %w", err)
	}
	return rows, nil
}

// DeleteByIDs removes the given demandas and reports how many rows went away.
func (r *DemandaRepository) DeleteByIDs(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := r.db.ExecContext(ctx, "DELETE FROM demandas WHERE id = ANY($1)", pq.Array(ids))
	if err != nil {
		return 0, fmt.Errorf("delete demandas: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete demandas rows affected: %w", err)
	}
	return int(affected), nil
}

// Create inserts a new demanda, filling id and timestamps when empty.
func (r *DemandaRepository) Create(ctx context.Context, d *models.Demanda) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if d.DataCriacao.IsZero() {
		d.DataCriacao = now
	}
	if d.Status == "" {
		d.Status = models.StatusAberta
	}
	d.CreatedAt = now
	d.UpdatedAt = now

	query := `INSERT INTO demandas (` + demandaColumns + `)
        VALUES (:id, :user_id, :foto_url, :categoria, :descricao, :localizacao, :endereco, :bairro, :data_criacao, :data_resolucao, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, d); err != nil {
		return fmt.Errorf("create demanda: %w", err)
	}
	return nil
}

// FindByID fetches a demanda by id. A missing row yields sql.ErrNoRows.
func (r *DemandaRepository) FindByID(ctx context.Context, id string) (*models.Demanda, error) {
	var d models.Demanda
	if err := r.db.GetContext(ctx, &d, "SELECT "+demandaColumns+" FROM demandas WHERE id = $1", id); err != nil {
		return nil, err
	}
	return &d, nil
}

// UpdateStatus persists the status and resolution timestamp of d.
func (r *DemandaRepository) UpdateStatus(ctx context.Context, d *models.Demanda) error {
	d.UpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx, "UPDATE demandas SET status = $1, data_resolucao = $2, updated_at = $3 WHERE id = $4",
		d.Status, d.DataResolucao, d.UpdatedAt, d.ID)
	if err != nil {
		return fmt.Errorf("update demanda status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update demanda status rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// List returns demandas for the dashboard table and map.
func (r *DemandaRepository) List(ctx context.Context, filter models.DemandaFilter) ([]models.Demanda, int, error) {
	args := []interface{}{}
	conditions := []string{"1=1"}

	if len(filter.Status) > 0 {
		status := make([]string, len(filter.Status))
		for i, s := range filter.Status {
			status[i] = string(s)
		}
		args = append(args, pq.Array(status))
		conditions = append(conditions, fmt.Sprintf("status = ANY($%d)", len(args)))
	}
	if filter.Categoria != "" {
		args = append(args, filter.Categoria)
		conditions = append(conditions, fmt.Sprintf("categoria = $%d", len(args)))
	}
	if filter.Bairro != "" {
		args = append(args, "%"+filter.Bairro+"%")
		conditions = append(conditions, fmt.Sprintf("bairro ILIKE $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		conditions = append(conditions, fmt.Sprintf("(descricao ILIKE $%d OR endereco ILIKE $%d)", len(args), len(args)))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		conditions = append(conditions, fmt.Sprintf("data_criacao >= $%d", len(args)))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		conditions = append(conditions, fmt.Sprintf("data_criacao <= $%d", len(args)))
	}
	where := strings.Join(conditions, " AND ")

	allowedSorts := map[string]string{
		"data_criacao": "data_criacao",
		"status":       "status",
		"categoria":    "categoria",
		"bairro":       "bairro",
	}
	column, ok := allowedSorts[filter.SortBy]
	if !ok {
		column = "data_criacao"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}

	query := fmt.Sprintf("SELECT %s FROM demandas WHERE %s ORDER BY %s %s", demandaColumns, where, column, order)
	if filter.PageSize > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", filter.PageSize, (page-1)*filter.PageSize)
	}

	var items []models.Demanda
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list demandas: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM demandas WHERE "+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count demandas: %w", err)
	}
	return items, total, nil
}

// StatusTotals aggregates demandas per status and the mean resolution time in days.
func (r *DemandaRepository) StatusTotals(ctx context.Context) (*models.StatusTotals, error) {
	const query = `SELECT COUNT(*) AS total,
        COUNT(*) FILTER (WHERE status = 'aberta') AS abertas,
        COUNT(*) FILTER (WHERE status = 'em_andamento') AS em_andamento,
        COUNT(*) FILTER (WHERE status = 'resolvida') AS resolvidas,
        COALESCE(AVG(EXTRACT(EPOCH FROM (data_resolucao - data_criacao)) / 86400) FILTER (WHERE status = 'resolvida' AND data_resolucao IS NOT NULL), 0) AS avg_resolution_days
        FROM demandas`
	var totals models.StatusTotals
	if err := r.db.GetContext(ctx, &totals, query); err != nil {
		return nil, fmt.Errorf("demanda status totals: %w", err)
	}
	return &totals, nil
}

// CountByCategory groups demandas by category, largest first.
func (r *DemandaRepository) CountByCategory(ctx context.Context) ([]models.CategoryCount, error) {
	const query = "SELECT categoria, COUNT(*) AS count FROM demandas GROUP BY categoria ORDER BY count DESC, categoria"
	var rows []models.CategoryCount
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("demandas by category: %w", err)
	}
	return rows, nil
}

// MonthlyEvolution counts demandas opened and resolved per month since the given instant.
func (r *DemandaRepository) MonthlyEvolution(ctx context.Context, since time.Time) ([]models.MonthlyEvolution, error) {
	const query = `SELECT to_char(date_trunc('month', data_criacao), 'YYYY-MM') AS mes,
        COUNT(*) AS abertas,
        COUNT(*) FILTER (WHERE status = 'resolvida') AS resolvidas
        FROM demandas WHERE data_criacao >= $1
        GROUP BY 1 ORDER BY 1`
	var rows []models.MonthlyEvolution
	if err := r.db.SelectContext(ctx, &rows, query, since); err != nil {
		return nil, fmt.Errorf("demandas monthly evolution: %w", err)
	}
	return rows, nil
}
