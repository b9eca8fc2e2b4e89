package server

import (
	"net/http"
	"strconv"

	"github.com/jrsteele09/go-expense-tracker/expenses"
)

// headerTotalCount carries the number of expenses matching a list query across all pages
const headerTotalCount = "X-Total-Count"

// caller builds the expense caller from the verified claims
func caller(r *http.Request) expenses.Caller {
	claims := ClaimsFromContext(r.Context())
	return expenses.Caller{UserID: claims.UserID, Role: claims.Role}
}

func (s *Server) CreateExpenseHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var params expenses.CreateParameters
		if err := decodeJSON(r, &params); err != nil {
			writeError(w, err)
			return
		}
		expense, err := s.services.Expenses.Create(r.Context(), caller(r), params)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, expense)
	}
}

// ListExpensesHandler returns one page as a JSON array; the total is in X-Total-Count
func (s *Server) ListExpensesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, err := expenses.ParseQuery(r.URL.Query())
		if err != nil {
			writeError(w, err)
			return
		}
		list, total, err := s.services.Expenses.List(r.Context(), caller(r), q)
		if err != nil {
			writeError(w, err)
			return
		}
		w.Header().Set(headerTotalCount, strconv.Itoa(total))
		writeJSON(w, http.StatusOK, list)
	}
}

func (s *Server) GetExpenseHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			writeError(w, err)
			return
		}
		expense, err := s.services.Expenses.Get(r.Context(), caller(r), id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, expense)
	}
}

func (s *Server) UpdateExpenseHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			writeError(w, err)
			return
		}
		var params expenses.UpdateParameters
		if err := decodeJSON(r, &params); err != nil {
			writeError(w, err)
			return
		}
		expense, err := s.services.Expenses.Update(r.Context(), caller(r), id, params)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, expense)
	}
}

func (s *Server) DeleteExpenseHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			writeError(w, err)
			return
		}
		if err := s.services.Expenses.Delete(r.Context(), caller(r), id); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
