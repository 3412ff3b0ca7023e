package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"contas/internal/core"
)

type createTransactionRequest struct {
	UserID        string `json:"user_id"`
	AccountID     string `json:"account_id"`
	CategoryID    string `json:"category_id"`
	Descricao     string `json:"descricao"`
	Valor         string `json:"valor"`
	Data          string `json:"data"`
	Tipo          string `json:"tipo"`
	TotalParcelas int    `json:"total_parcelas"`
	Observacoes   string `json:"observacoes"`
}

type transactionResponse struct {
	ID            string  `json:"id"`
	AccountID     string  `json:"account_id"`
	CategoryID    string  `json:"category_id"`
	Descricao     string  `json:"descricao"`
	Valor         float64 `json:"valor"`
	Data          string  `json:"data"`
	Tipo          string  `json:"tipo"`
	TotalParcelas int     `json:"total_parcelas,omitempty"`
	ParcelaAtual  int     `json:"parcela_atual,omitempty"`
	ParentID      string  `json:"id_transacao_pai,omitempty"`
	Observacoes   string  `json:"observacoes,omitempty"`
	IsRecorrente  bool    `json:"is_recorrente,omitempty"`
}

func toTransactionResponse(t core.Transaction) transactionResponse {
	return transactionResponse{
		ID:            t.ID,
		AccountID:     t.AccountID,
		CategoryID:    t.CategoryID,
		Descricao:     t.Description,
		Valor:         t.Amount.Reais(),
		Data:          t.Date.String(),
		Tipo:          string(t.Type),
		TotalParcelas: t.TotalParcelas,
		ParcelaAtual:  t.ParcelaAtual,
		ParentID:      t.ParentID,
		Observacoes:   t.Notes,
		IsRecorrente:  t.Recurring,
	}
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleCreateTransaction(w, r)
	case http.MethodGet:
		s.handleListTransactions(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	householdID, ok := householdFrom(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "missing X-Household-ID header")
		return
	}

	var req createTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.ErrorContext(r.Context(), "Decode request error", "error", err, "url", r.URL.Path)
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	cents, err := core.ParseDecimalToCents(req.Valor)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "valor inválido")
		return
	}

	draft := core.TransactionDraft{
		HouseholdID:  householdID,
		UserID:       sanitizeInput(req.UserID),
		AccountID:    sanitizeInput(req.AccountID),
		CategoryID:   sanitizeInput(req.CategoryID),
		Description:  sanitizeInput(req.Descricao),
		Amount:       core.Money{Cents: cents},
		Date:         sanitizeInput(req.Data),
		Type:         core.TransactionType(req.Tipo),
		Installments: req.TotalParcelas,
		Notes:        sanitizeInput(req.Observacoes),
	}

	tx, err := s.txService.Submit(r.Context(), draft)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			slog.ErrorContext(r.Context(), "Transaction submission error", "error", err, "household_id", householdID)
			writeError(w, status, "erro ao salvar transação")
			return
		}
		writeError(w, status, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, toTransactionResponse(tx))
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	householdID, ok := householdFrom(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "missing X-Household-ID header")
		return
	}

	year, month := parseYearMonth(r)
	transactions, err := s.store.ListTransactionsByMonth(r.Context(), householdID, year, month)
	if err != nil {
		slog.ErrorContext(r.Context(), "List transactions error", "error", err, "year", year, "month", month)
		writeError(w, http.StatusInternalServerError, "erro ao listar transações")
		return
	}

	out := make([]transactionResponse, 0, len(transactions))
	for _, t := range transactions {
		out = append(out, toTransactionResponse(t))
	}
	writeJSON(w, http.StatusOK, out)
}

type accountResponse struct {
	ID       string `json:"id"`
	Nome     string `json:"nome_conta"`
	Tipo     string `json:"tipo"`
	CloseDay int    `json:"close_day,omitempty"`
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	householdID, ok := householdFrom(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "missing X-Household-ID header")
		return
	}

	snap, err := s.finance.Snapshot(r.Context(), householdID)
	if err != nil {
		slog.ErrorContext(r.Context(), "Snapshot error", "error", err, "household_id", householdID)
		writeError(w, http.StatusInternalServerError, "erro ao listar contas")
		return
	}

	out := make([]accountResponse, 0, len(snap.Accounts))
	for _, a := range snap.Accounts {
		out = append(out, accountResponse{
			ID:       a.ID,
			Nome:     a.Name,
			Tipo:     string(a.Type),
			CloseDay: a.CloseDay,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

type categoryResponse struct {
	ID   string `json:"id"`
	Nome string `json:"nome"`
	Tipo string `json:"tipo"`
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	householdID, ok := householdFrom(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "missing X-Household-ID header")
		return
	}

	snap, err := s.finance.Snapshot(r.Context(), householdID)
	if err != nil {
		slog.ErrorContext(r.Context(), "Snapshot error", "error", err, "household_id", householdID)
		writeError(w, http.StatusInternalServerError, "erro ao listar categorias")
		return
	}

	out := make([]categoryResponse, 0, len(snap.Categories))
	for _, c := range snap.Categories {
		out = append(out, categoryResponse{
			ID:   c.ID,
			Nome: c.Name,
			Tipo: string(c.Type),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

type categoryAmountResponse struct {
	CategoryID string  `json:"category_id"`
	Nome       string  `json:"nome"`
	Valor      float64 `json:"valor"`
}

type monthDashboardResponse struct {
	Year         int                      `json:"year"`
	Month        int                      `json:"month"`
	Receitas     float64                  `json:"receitas"`
	Despesas     float64                  `json:"despesas"`
	Saldo        float64                  `json:"saldo"`
	PorCategoria []categoryAmountResponse `json:"por_categoria"`
}

func (s *Server) handleMonthDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	householdID, ok := householdFrom(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "missing X-Household-ID header")
		return
	}

	year, month := parseYearMonth(r)
	overview, err := s.finance.MonthOverview(r.Context(), householdID, year, month)
	if err != nil {
		slog.ErrorContext(r.Context(), "Month overview error", "error", err, "year", year, "month", month)
		writeError(w, http.StatusInternalServerError, "erro ao montar painel do mês")
		return
	}

	out := monthDashboardResponse{
		Year:         overview.Year,
		Month:        overview.Month,
		Receitas:     overview.Income.Reais(),
		Despesas:     overview.Expense.Reais(),
		Saldo:        float64(overview.Balance()) / 100,
		PorCategoria: make([]categoryAmountResponse, 0, len(overview.ByCategory)),
	}
	for _, c := range overview.ByCategory {
		out.PorCategoria = append(out.PorCategoria, categoryAmountResponse{
			CategoryID: c.CategoryID,
			Nome:       c.Name,
			Valor:      c.Amount.Reais(),
		})
	}
	writeJSON(w, http.StatusOK, out)
}
