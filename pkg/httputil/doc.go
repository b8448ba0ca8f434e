// Package httputil holds the JSON response writers and the generic middleware shared by
// the catalog's HTTP surfaces.
//
//	httputil.WriteJSON(w, http.StatusOK, info)
//	httputil.WriteErrorMessage(w, http.StatusNotFound, "not found")
package httputil
