package router

import (
	"net/http"

	"paycore/internal/adapters/inbound/http/controllers"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Dependencies struct {
	HealthController           *controllers.HealthController
	SwaggerController          *controllers.SwaggerController
	DepositAddressesController *controllers.DepositAddressesController
	BalancesController         *controllers.BalancesController
	InvoicesController         *controllers.InvoicesController
	WebhooksController         *controllers.WebhooksController
	DepositsController         *controllers.DepositsController
	MetricsGatherer            prometheus.Gatherer
}

func New(deps Dependencies) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", deps.HealthController.GetHealth)
	mux.HandleFunc("GET /swagger", deps.SwaggerController.RedirectToIndex)
	mux.HandleFunc("GET /swagger/openapi.yaml", deps.SwaggerController.GetOpenAPISpec)
	mux.HandleFunc("GET /swagger/", deps.SwaggerController.ServeUI)
	mux.HandleFunc("PUT /v1/users/{id}/deposit-addresses/{chain}", deps.DepositAddressesController.AllocateDepositAddress)
	mux.HandleFunc("GET /v1/users/{id}/balance", deps.BalancesController.GetBalance)
	mux.HandleFunc("POST /v1/users/{id}/debits", deps.BalancesController.CreateDebit)
	mux.HandleFunc("POST /v1/users/{id}/credits", deps.BalancesController.CreateCredit)
	mux.HandleFunc("GET /v1/users/{id}/deposits", deps.DepositsController.ListUserDeposits)
	mux.HandleFunc("POST /v1/invoices", deps.InvoicesController.CreateInvoice)
	mux.HandleFunc("POST /v1/webhooks/processor", deps.WebhooksController.HandleProcessorWebhook)

	if deps.MetricsGatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(deps.MetricsGatherer, promhttp.HandlerOpts{}))
	}

	return mux
}
