package sandbox

import (
	"html/template"
	"net/http"
	"net/url"
	"time"

	"go.vocdoni.io/dvote/log"
)

var challengePage = template.Must(template.New("challenge").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Sandbox 3-D Secure</title></head>
<body>
  <h1>Sandbox 3-D Secure challenge</h1>
  <p>Simulated issuer authentication. Choose the result of the challenge.</p>
  <form method="POST" action="{{.Action}}">
    <input type="hidden" name="paymentData" value="{{.PaymentData}}">
    <button type="submit" name="decision" value="approve">Approve</button>
    <button type="submit" name="decision" value="decline">Decline</button>
  </form>
</body>
</html>
`))

var returnForm = template.Must(template.New("return").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Returning to the shop</title></head>
<body onload="document.forms[0].submit()">
  <form method="POST" action="{{.ReturnURL}}">
    <input type="hidden" name="{{.Param}}" value="{{.Result}}">
    <noscript><button type="submit">Continue</button></noscript>
  </form>
</body>
</html>
`))

// ChallengeHandler serves the simulated issuer challenge. GET renders the
// challenge page and POST records the shopper decision and sends the shopper
// back to the return URL of the payment.
func (p *Provider) ChallengeHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		paymentData := r.URL.Query().Get("paymentData")
		if !p.pending(paymentData) {
			http.Error(w, "unknown or expired challenge", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := challengePage.Execute(w, map[string]string{
			"Action":      ChallengePath,
			"PaymentData": paymentData,
		}); err != nil {
			log.Warnw("failed to render sandbox challenge", "error", err)
		}
	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			http.Error(w, "malformed form", http.StatusBadRequest)
			return
		}
		ch, token, ok := p.complete(r.PostForm.Get("paymentData"), r.PostForm.Get("decision") == "approve")
		if !ok {
			http.Error(w, "unknown or completed challenge", http.StatusNotFound)
			return
		}
		if ch.method == http.MethodPost {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			if err := returnForm.Execute(w, map[string]string{
				"ReturnURL": ch.returnURL,
				"Param":     RedirectResultParam,
				"Result":    token,
			}); err != nil {
				log.Warnw("failed to render sandbox return form", "error", err)
			}
			return
		}
		target, err := url.Parse(ch.returnURL)
		if err != nil {
			http.Error(w, "invalid return URL", http.StatusInternalServerError)
			return
		}
		q := target.Query()
		q.Set(RedirectResultParam, token)
		target.RawQuery = q.Encode()
		http.Redirect(w, r, target.String(), http.StatusSeeOther)
	default:
		w.Header().Set("Allow", "GET, POST")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	}
}

// pending returns true if the challenge exists and was not completed yet.
func (p *Provider) pending(paymentData string) bool {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	ch, ok := p.challenges[paymentData]
	return ok && !ch.completed && !ch.expired(time.Now())
}
