// internal/api/admin.go
package api

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	apperrors "scribe-api/internal/common/errors"
	"scribe-api/internal/common/validation"
	"scribe-api/internal/models"
)

func idParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, apperrors.NewValidationError("invalid id", chi.URLParam(r, "id"))
	}
	return id, nil
}

// handleListGroups lists groups, restricted to the realms the caller may
// administer.
func (a *API) handleListGroups(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r)

	realm := r.URL.Query().Get("realm")
	if realm != "" && !p.Claims.CanAdminRealm(realm) {
		a.errs.Respond(w, r, apperrors.NewAuthorizationError("realm not administered by caller"))
		return
	}

	groups, err := a.groups.List(r.Context(), realm)
	if err != nil {
		a.errs.Respond(w, r, err)
		return
	}

	visible := make([]*models.Group, 0, len(groups))
	for _, group := range groups {
		if p.Claims.CanAdminRealm(group.Realm) || p.User.Admin {
			visible = append(visible, group)
		}
	}
	a.writeJSON(w, http.StatusOK, map[string]interface{}{"groups": visible})
}

func (a *API) readGroupWrite(w http.ResponseWriter, r *http.Request) (models.GroupWrite, bool) {
	var write models.GroupWrite

	body, err := io.ReadAll(r.Body)
	if err != nil {
		a.errs.Respond(w, r, apperrors.NewValidationError("unreadable request body", err.Error()))
		return write, false
	}
	if err := validation.ValidateJSON(validation.GroupSchema, body); err != nil {
		a.errs.Respond(w, r, err)
		return write, false
	}
	if err := json.Unmarshal(body, &write); err != nil {
		a.errs.Respond(w, r, apperrors.NewValidationError("invalid JSON body", err.Error()))
		return write, false
	}

	p := principalFrom(r)
	if !p.Claims.CanAdminRealm(write.Realm) && !p.User.Admin {
		a.errs.Respond(w, r, apperrors.NewAuthorizationError("realm not administered by caller"))
		return write, false
	}
	return write, true
}

// handleCreateGroup creates a group. Quota arrives in minutes and is
// stored in seconds.
func (a *API) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	write, ok := a.readGroupWrite(w, r)
	if !ok {
		return
	}

	group, err := a.groups.Create(r.Context(), write)
	if err != nil {
		a.errs.Respond(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusCreated, group)
}

// handleUpdateGroup replaces a group's attributes and membership.
func (a *API) handleUpdateGroup(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		a.errs.Respond(w, r, err)
		return
	}
	if !a.canAdminGroup(w, r, id) {
		return
	}

	write, ok := a.readGroupWrite(w, r)
	if !ok {
		return
	}
	group, err := a.groups.Update(r.Context(), id, write)
	if err != nil {
		a.errs.Respond(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, group)
}

// handleDeleteGroup removes a group.
func (a *API) handleDeleteGroup(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		a.errs.Respond(w, r, err)
		return
	}
	if !a.canAdminGroup(w, r, id) {
		return
	}

	if err := a.groups.Delete(r.Context(), id); err != nil {
		a.errs.Respond(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleGroupStats returns usage aggregates for one group.
func (a *API) handleGroupStats(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		a.errs.Respond(w, r, err)
		return
	}
	if !a.canAdminGroup(w, r, id) {
		return
	}

	stats, err := a.groups.Stats(r.Context(), id)
	if err != nil {
		a.errs.Respond(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, stats)
}

// canAdminGroup loads the group and checks the caller's realm scope. It
// writes the error response itself when access is denied.
func (a *API) canAdminGroup(w http.ResponseWriter, r *http.Request, id int64) bool {
	p := principalFrom(r)

	group, err := a.groups.Get(r.Context(), id)
	if err != nil {
		a.errs.Respond(w, r, err)
		return false
	}
	if !p.Claims.CanAdminRealm(group.Realm) && !p.User.Admin {
		a.errs.Respond(w, r, apperrors.NewAuthorizationError("realm not administered by caller"))
		return false
	}
	return true
}

// handleListUsers lists accounts, restricted to the realms the caller
// may administer.
func (a *API) handleListUsers(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r)

	realm := r.URL.Query().Get("realm")
	if realm != "" && !p.Claims.CanAdminRealm(realm) {
		a.errs.Respond(w, r, apperrors.NewAuthorizationError("realm not administered by caller"))
		return
	}

	users, err := a.users.List(r.Context(), realm)
	if err != nil {
		a.errs.Respond(w, r, err)
		return
	}

	visible := make([]*models.User, 0, len(users))
	for _, user := range users {
		if p.Claims.CanAdminRealm(user.Realm) || p.User.Admin {
			visible = append(visible, user)
		}
	}
	a.writeJSON(w, http.StatusOK, map[string]interface{}{"users": visible})
}

// handleListRealms lists the realms known to the service, filtered to
// the caller's administered domains.
func (a *API) handleListRealms(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r)

	realms, err := a.users.ListRealms(r.Context())
	if err != nil {
		a.errs.Respond(w, r, err)
		return
	}

	visible := make([]string, 0, len(realms))
	for _, realm := range realms {
		if p.Claims.CanAdminRealm(realm) || p.User.Admin {
			visible = append(visible, realm)
		}
	}
	a.writeJSON(w, http.StatusOK, map[string]interface{}{"realms": visible})
}

// handleUpdateUser applies admin-editable account attributes. Turning an
// account active for the first time triggers the activation email.
func (a *API) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p := principalFrom(r)
	username := chi.URLParam(r, "username")

	current, err := a.users.Get(ctx, username)
	if err != nil {
		a.errs.Respond(w, r, err)
		return
	}
	if !p.Claims.CanAdminRealm(current.Realm) && !p.User.Admin {
		a.errs.Respond(w, r, apperrors.NewAuthorizationError("realm not administered by caller"))
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		a.errs.Respond(w, r, apperrors.NewValidationError("unreadable request body", err.Error()))
		return
	}
	if err := validation.ValidateJSON(validation.UserUpdateSchema, body); err != nil {
		a.errs.Respond(w, r, err)
		return
	}
	var update models.UserUpdate
	if err := json.Unmarshal(body, &update); err != nil {
		a.errs.Respond(w, r, apperrors.NewValidationError("invalid JSON body", err.Error()))
		return
	}

	updated, err := a.users.Update(ctx, username, update)
	if err != nil {
		a.errs.Respond(w, r, err)
		return
	}

	if !current.Active && updated.Active {
		a.notifier.AccountActivated(ctx, updated)
	}
	a.writeJSON(w, http.StatusOK, updated)
}

// handleDeleteUser removes an account.
func (a *API) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p := principalFrom(r)
	username := chi.URLParam(r, "username")

	current, err := a.users.Get(ctx, username)
	if err != nil {
		a.errs.Respond(w, r, err)
		return
	}
	if !p.Claims.CanAdminRealm(current.Realm) && !p.User.Admin {
		a.errs.Respond(w, r, apperrors.NewAuthorizationError("realm not administered by caller"))
		return
	}

	if err := a.users.Delete(ctx, username); err != nil {
		a.errs.Respond(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleListCustomers lists all billed customers.
func (a *API) handleListCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := a.customers.List(r.Context())
	if err != nil {
		a.errs.Respond(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, map[string]interface{}{"customers": customers})
}

func (a *API) readCustomer(w http.ResponseWriter, r *http.Request) (*models.Customer, bool) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		a.errs.Respond(w, r, apperrors.NewValidationError("unreadable request body", err.Error()))
		return nil, false
	}
	if err := validation.ValidateJSON(validation.CustomerSchema, body); err != nil {
		a.errs.Respond(w, r, err)
		return nil, false
	}
	var customer models.Customer
	if err := json.Unmarshal(body, &customer); err != nil {
		a.errs.Respond(w, r, apperrors.NewValidationError("invalid JSON body", err.Error()))
		return nil, false
	}
	return &customer, true
}

// handleCreateCustomer registers a new customer.
func (a *API) handleCreateCustomer(w http.ResponseWriter, r *http.Request) {
	customer, ok := a.readCustomer(w, r)
	if !ok {
		return
	}
	created, err := a.customers.Create(r.Context(), customer)
	if err != nil {
		a.errs.Respond(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusCreated, created)
}

// handleUpdateCustomer replaces a customer's attributes.
func (a *API) handleUpdateCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		a.errs.Respond(w, r, err)
		return
	}
	customer, ok := a.readCustomer(w, r)
	if !ok {
		return
	}
	updated, err := a.customers.Update(r.Context(), id, customer)
	if err != nil {
		a.errs.Respond(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, updated)
}

// handleDeleteCustomer removes a customer.
func (a *API) handleDeleteCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		a.errs.Respond(w, r, err)
		return
	}
	if err := a.customers.Delete(r.Context(), id); err != nil {
		a.errs.Respond(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleCustomerStats returns block consumption for one customer.
func (a *API) handleCustomerStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := idParam(r)
	if err != nil {
		a.errs.Respond(w, r, err)
		return
	}
	customer, err := a.customers.Get(ctx, id)
	if err != nil {
		a.errs.Respond(w, r, err)
		return
	}
	stats, err := a.customers.Stats(ctx, customer, a.cfg.Quota.BlockMinutes)
	if err != nil {
		a.errs.Respond(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, stats)
}

// handleExportCustomersCSV streams every customer with its consumption
// figures as CSV.
func (a *API) handleExportCustomersCSV(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	customers, err := a.customers.List(ctx)
	if err != nil {
		a.errs.Respond(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="customers.csv"`)
	w.WriteHeader(http.StatusOK)

	writer := csv.NewWriter(w)
	_ = writer.Write([]string{
		"customer_abbr", "name", "priceplan", "base_fee", "realms",
		"blocks_purchased", "blocks_consumed", "transcribed_minutes",
		"external_minutes", "overage_minutes", "remaining_minutes", "total_users",
	})

	for _, customer := range customers {
		stats, err := a.customers.Stats(ctx, customer, a.cfg.Quota.BlockMinutes)
		if err != nil {
			a.logger.WithError(err).Warn("failed to compute customer stats", map[string]interface{}{
				"customer": customer.CustomerAbbr,
			})
			continue
		}
		_ = writer.Write([]string{
			customer.CustomerAbbr,
			customer.Name,
			customer.PricePlan,
			fmt.Sprintf("%.2f", customer.BaseFee),
			customer.Realms,
			strconv.FormatInt(customer.BlocksPurchased, 10),
			fmt.Sprintf("%.2f", stats.BlocksConsumed),
			fmt.Sprintf("%.1f", stats.TranscribedMinutes),
			fmt.Sprintf("%.1f", stats.ExternalMinutes),
			fmt.Sprintf("%.1f", stats.OverageMinutes),
			fmt.Sprintf("%.1f", stats.RemainingMinutes),
			strconv.FormatInt(stats.TotalUsers, 10),
		})
	}
	writer.Flush()
}
