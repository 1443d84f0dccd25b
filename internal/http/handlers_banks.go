package http

import (
	"net/http"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

func (s *Server) handleListBanks(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.debts.List(r.Context())
	if err != nil {
		s.writeError(w, r, log.OpList, err)
		return
	}
	NewJSONResponse().Body(newBankViews(accounts)).Write(w)
}

func (s *Server) handleGetBank(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, log.OpRead, err)
		return
	}
	a, err := s.debts.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, log.OpRead, err)
		return
	}
	NewJSONResponse().Body(newBankView(a)).Write(w)
}

func (s *Server) handleCreateBank(w http.ResponseWriter, r *http.Request) {
	var req bankRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, log.OpCreate, err)
		return
	}
	a, err := req.toAccount(0)
	if err != nil {
		s.writeError(w, r, log.OpCreate, err)
		return
	}

	created, err := s.debts.Create(r.Context(), a)
	if err != nil {
		s.writeError(w, r, log.OpCreate, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Body(newBankView(created)).Write(w)
}

// handleUpdateBank replaces an account. A version in the body enables the
// concurrent edit check (409 on mismatch).
func (s *Server) handleUpdateBank(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, log.OpUpdate, err)
		return
	}
	var req bankRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, log.OpUpdate, err)
		return
	}
	a, err := req.toAccount(id)
	if err != nil {
		s.writeError(w, r, log.OpUpdate, err)
		return
	}

	updated, err := s.debts.Update(r.Context(), a)
	if err != nil {
		s.writeError(w, r, log.OpUpdate, err)
		return
	}
	NewJSONResponse().Body(newBankView(updated)).Write(w)
}

func (s *Server) handleDeleteBank(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, log.OpDelete, err)
		return
	}
	if err := s.debts.Delete(r.Context(), id); err != nil {
		s.writeError(w, r, log.OpDelete, err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

// handlePlan returns the payoff projection. A plan cut short because
// payments never cover interest is still a 200, flagged with a warning.
func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, log.OpPlan, err)
		return
	}
	plan, err := s.debts.Plan(r.Context(), id)
	if err != nil {
		s.writeError(w, r, log.OpPlan, err)
		return
	}
	NewJSONResponse().Body(newPlanView(plan)).Write(w)
}

func (s *Server) handlePayMonth(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, log.OpPay, err)
		return
	}
	var req payMonthRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, log.OpPay, err)
		return
	}
	month, err := monthParam(req.Month, "month")
	if err == nil && month == "" {
		err = &core.ValidationError{Field: "month", Message: "month is required"}
	}
	if err != nil {
		s.writeError(w, r, log.OpPay, err)
		return
	}

	a, applied, err := s.debts.PayMonth(r.Context(), id, month)
	if err != nil {
		s.writeError(w, r, log.OpPay, err)
		return
	}
	NewJSONResponse().Body(newPaymentResult(a, applied)).Write(w)
}

func (s *Server) handlePayExtra(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, log.OpPay, err)
		return
	}
	var req amountRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, log.OpPay, err)
		return
	}
	amount, err := req.value()
	if err != nil {
		s.writeError(w, r, log.OpPay, err)
		return
	}

	a, applied, err := s.debts.PayExtra(r.Context(), id, amount)
	if err != nil {
		s.writeError(w, r, log.OpPay, err)
		return
	}
	NewJSONResponse().Body(newPaymentResult(a, applied)).Write(w)
}

func (s *Server) handleSetCustomPayment(w http.ResponseWriter, r *http.Request) {
	id, month, err := bankMonth(r)
	if err != nil {
		s.writeError(w, r, log.OpUpdate, err)
		return
	}
	var req amountRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, log.OpUpdate, err)
		return
	}
	amount, err := req.value()
	if err != nil {
		s.writeError(w, r, log.OpUpdate, err)
		return
	}

	a, err := s.debts.SetCustomPayment(r.Context(), id, month, amount)
	if err != nil {
		s.writeError(w, r, log.OpUpdate, err)
		return
	}
	NewJSONResponse().Body(newBankView(a)).Write(w)
}

func (s *Server) handleClearCustomPayment(w http.ResponseWriter, r *http.Request) {
	id, month, err := bankMonth(r)
	if err != nil {
		s.writeError(w, r, log.OpUpdate, err)
		return
	}
	a, err := s.debts.ClearCustomPayment(r.Context(), id, month)
	if err != nil {
		s.writeError(w, r, log.OpUpdate, err)
		return
	}
	NewJSONResponse().Body(newBankView(a)).Write(w)
}

func bankMonth(r *http.Request) (int64, core.MonthKey, error) {
	id, err := pathID(r, "id")
	if err != nil {
		return 0, "", err
	}
	month, err := monthParam(r.PathValue("month"), "month")
	if err != nil {
		return 0, "", err
	}
	return id, month, nil
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	month, err := monthParam(r.URL.Query().Get("month"), "month")
	if err != nil {
		s.writeError(w, r, log.OpRead, err)
		return
	}
	summary, err := s.reports.Summary(r.Context(), month)
	if err != nil {
		s.writeError(w, r, log.OpRead, err)
		return
	}
	NewJSONResponse().Body(newSummaryView(summary)).Write(w)
}
