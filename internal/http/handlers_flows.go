package http

import (
	"net/http"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

// flowRoutes registers the CRUD and entry routes of one flow kind.
func (s *Server) flowRoutes(mux *http.ServeMux, kind core.FlowKind, flows, entries string) {
	base := "/api/" + flows
	mux.HandleFunc("GET "+base, s.handleListFlows(kind))
	mux.HandleFunc("POST "+base, s.handleCreateFlow(kind))
	mux.HandleFunc("GET "+base+"/{id}", s.handleGetFlow(kind))
	mux.HandleFunc("PUT "+base+"/{id}", s.handleUpdateFlow(kind))
	mux.HandleFunc("DELETE "+base+"/{id}", s.handleDeleteFlow(kind))

	mux.HandleFunc("GET /api/"+entries, s.handleListEntries(kind))
	mux.HandleFunc("PATCH /api/"+entries+"/{id}", s.handleSettleEntry(kind))
	mux.HandleFunc("PUT /api/"+entries+"/{id}", s.handleSettleEntry(kind))
}

func (s *Server) handleListFlows(kind core.FlowKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flows, err := s.flows.List(r.Context(), kind)
		if err != nil {
			s.writeError(w, r, log.OpList, err)
			return
		}
		NewJSONResponse().Body(newFlowViews(flows)).Write(w)
	}
}

func (s *Server) handleGetFlow(kind core.FlowKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			s.writeError(w, r, log.OpRead, err)
			return
		}
		f, err := s.flows.Get(r.Context(), kind, id)
		if err != nil {
			s.writeError(w, r, log.OpRead, err)
			return
		}
		NewJSONResponse().Body(newFlowView(f)).Write(w)
	}
}

func (s *Server) handleCreateFlow(kind core.FlowKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req flowRequest
		if err := decodeJSON(r, &req); err != nil {
			s.writeError(w, r, log.OpCreate, err)
			return
		}
		in, err := req.toInput()
		if err != nil {
			s.writeError(w, r, log.OpCreate, err)
			return
		}

		f, err := s.flows.Create(r.Context(), kind, in)
		if err != nil {
			s.writeError(w, r, log.OpCreate, err)
			return
		}
		NewJSONResponse().Status(http.StatusCreated).Body(newFlowView(f)).Write(w)
	}
}

func (s *Server) handleUpdateFlow(kind core.FlowKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			s.writeError(w, r, log.OpUpdate, err)
			return
		}
		var req flowRequest
		if err := decodeJSON(r, &req); err != nil {
			s.writeError(w, r, log.OpUpdate, err)
			return
		}
		in, err := req.toInput()
		if err != nil {
			s.writeError(w, r, log.OpUpdate, err)
			return
		}

		f, err := s.flows.Update(r.Context(), kind, id, in)
		if err != nil {
			s.writeError(w, r, log.OpUpdate, err)
			return
		}
		NewJSONResponse().Body(newFlowView(f)).Write(w)
	}
}

func (s *Server) handleDeleteFlow(kind core.FlowKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			s.writeError(w, r, log.OpDelete, err)
			return
		}
		if err := s.flows.Delete(r.Context(), kind, id); err != nil {
			s.writeError(w, r, log.OpDelete, err)
			return
		}
		NewJSONResponse().Status(http.StatusNoContent).Write(w)
	}
}

// handleListEntries lists entries, optionally for one billing month
// (?month=YYYY-MM).
func (s *Server) handleListEntries(kind core.FlowKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		month, err := monthParam(r.URL.Query().Get("month"), "month")
		if err != nil {
			s.writeError(w, r, log.OpList, err)
			return
		}
		views, err := s.flows.ListEntries(r.Context(), kind, month)
		if err != nil {
			s.writeError(w, r, log.OpList, err)
			return
		}
		NewJSONResponse().Body(newEntryViews(views)).Write(w)
	}
}

func (s *Server) handleSettleEntry(kind core.FlowKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			s.writeError(w, r, log.OpUpdate, err)
			return
		}
		var req settleRequest
		if err := decodeJSON(r, &req); err != nil {
			s.writeError(w, r, log.OpUpdate, err)
			return
		}
		settled, err := req.value()
		if err != nil {
			s.writeError(w, r, log.OpUpdate, err)
			return
		}

		v, err := s.flows.SetSettled(r.Context(), kind, id, settled)
		if err != nil {
			s.writeError(w, r, log.OpUpdate, err)
			return
		}
		NewJSONResponse().Body(newEntryView(v.ScheduleEntry, v.FlowName)).Write(w)
	}
}
