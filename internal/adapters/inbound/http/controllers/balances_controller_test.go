//go:build !integration

package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"paycore/internal/application/dto"
	"paycore/internal/infrastructure/metrics"
	apperrors "paycore/internal/shared_kernel/errors"
)

type fakeGetBalanceUseCase struct {
	snapshot dto.BalanceSnapshot
	err      *apperrors.AppError
}

func (f *fakeGetBalanceUseCase) Execute(_ context.Context, _ dto.GetBalanceCommand) (dto.BalanceSnapshot, *apperrors.AppError) {
	if f.err != nil {
		return dto.BalanceSnapshot{}, f.err
	}
	return f.snapshot, nil
}

type fakeDebitUseCase struct {
	output  dto.DebitBalanceOutput
	err     *apperrors.AppError
	lastCmd dto.DebitBalanceCommand
}

func (f *fakeDebitUseCase) Execute(_ context.Context, command dto.DebitBalanceCommand) (dto.DebitBalanceOutput, *apperrors.AppError) {
	f.lastCmd = command
	if f.err != nil {
		return dto.DebitBalanceOutput{}, f.err
	}
	return f.output, nil
}

type fakeCreditUseCase struct {
	output  dto.CreditBalanceOutput
	err     *apperrors.AppError
	lastCmd dto.CreditBalanceCommand
}

func (f *fakeCreditUseCase) Execute(_ context.Context, command dto.CreditBalanceCommand) (dto.CreditBalanceOutput, *apperrors.AppError) {
	f.lastCmd = command
	if f.err != nil {
		return dto.CreditBalanceOutput{}, f.err
	}
	return f.output, nil
}

func newBalancesRequest(method, target string, body []byte, pathValues map[string]string) *http.Request {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	for key, value := range pathValues {
		req.SetPathValue(key, value)
	}
	return req
}

func TestGetBalanceReturnsSnapshot(t *testing.T) {
	controller := NewBalancesController(
		&fakeGetBalanceUseCase{snapshot: dto.BalanceSnapshot{
			UserID:                "user_1",
			CreditedTotalMinor:    1500,
			ConsumedTotalMinor:    300,
			AvailableBalanceMinor: 1200,
		}},
		&fakeDebitUseCase{},
		&fakeCreditUseCase{},
		nil,
		log.New(io.Discard, "", 0),
	)

	req := newBalancesRequest(http.MethodGet, "/v1/users/user_1/balance", nil, map[string]string{"id": "user_1"})
	rec := httptest.NewRecorder()

	controller.GetBalance(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var snapshot dto.BalanceSnapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snapshot); err != nil {
		t.Fatalf("expected valid JSON body, got error: %v", err)
	}
	if snapshot.AvailableBalanceMinor != 1200 {
		t.Fatalf("expected available 1200, got %d", snapshot.AvailableBalanceMinor)
	}
}

func TestCreateDebitSuccess(t *testing.T) {
	fakeDebit := &fakeDebitUseCase{output: dto.DebitBalanceOutput{AvailableBalanceMinor: 700}}
	controller := NewBalancesController(&fakeGetBalanceUseCase{}, fakeDebit, &fakeCreditUseCase{}, nil, log.New(io.Discard, "", 0))

	req := newBalancesRequest(
		http.MethodPost,
		"/v1/users/user_1/debits",
		[]byte(`{"amount_minor": 300}`),
		map[string]string{"id": "user_1"},
	)
	rec := httptest.NewRecorder()

	controller.CreateDebit(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", rec.Code)
	}
	if fakeDebit.lastCmd.UserID != "user_1" || fakeDebit.lastCmd.AmountMinor != 300 {
		t.Fatalf("unexpected debit command %+v", fakeDebit.lastCmd)
	}
}

func TestCreateDebitInsufficientBalanceIs409(t *testing.T) {
	fakeDebit := &fakeDebitUseCase{
		err: apperrors.NewInsufficientBalance("insufficient_balance", "available balance does not cover the debit", nil),
	}
	controller := NewBalancesController(&fakeGetBalanceUseCase{}, fakeDebit, &fakeCreditUseCase{}, nil, log.New(io.Discard, "", 0))

	req := newBalancesRequest(
		http.MethodPost,
		"/v1/users/user_1/debits",
		[]byte(`{"amount_minor": 999999}`),
		map[string]string{"id": "user_1"},
	)
	rec := httptest.NewRecorder()

	controller.CreateDebit(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", rec.Code)
	}
}

func TestCreateDebitRejectsMalformedBody(t *testing.T) {
	controller := NewBalancesController(&fakeGetBalanceUseCase{}, &fakeDebitUseCase{}, &fakeCreditUseCase{}, nil, log.New(io.Discard, "", 0))

	req := newBalancesRequest(
		http.MethodPost,
		"/v1/users/user_1/debits",
		[]byte(`{"amount_minor": "three hundred"}`),
		map[string]string{"id": "user_1"},
	)
	rec := httptest.NewRecorder()

	controller.CreateDebit(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

func TestCreateCreditAppliedIs201(t *testing.T) {
	fakeCredit := &fakeCreditUseCase{output: dto.CreditBalanceOutput{Applied: true, AvailableBalanceMinor: 2500}}
	controller := NewBalancesController(&fakeGetBalanceUseCase{}, &fakeDebitUseCase{}, fakeCredit, nil, log.New(io.Discard, "", 0))

	req := newBalancesRequest(
		http.MethodPost,
		"/v1/users/user_1/credits",
		[]byte(`{"amount_minor": 1000, "source_ref": "adjustment:ticket-42"}`),
		map[string]string{"id": "user_1"},
	)
	rec := httptest.NewRecorder()

	controller.CreateCredit(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", rec.Code)
	}
	if fakeCredit.lastCmd.SourceRef != "adjustment:ticket-42" {
		t.Fatalf("unexpected credit command %+v", fakeCredit.lastCmd)
	}
}

func TestCreateCreditReplayIs200(t *testing.T) {
	fakeCredit := &fakeCreditUseCase{output: dto.CreditBalanceOutput{Applied: false, AvailableBalanceMinor: 2500}}
	controller := NewBalancesController(&fakeGetBalanceUseCase{}, &fakeDebitUseCase{}, fakeCredit, nil, log.New(io.Discard, "", 0))

	req := newBalancesRequest(
		http.MethodPost,
		"/v1/users/user_1/credits",
		[]byte(`{"amount_minor": 1000, "source_ref": "adjustment:ticket-42"}`),
		map[string]string{"id": "user_1"},
	)
	rec := httptest.NewRecorder()

	controller.CreateCredit(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var response creditResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("expected valid JSON body, got error: %v", err)
	}
	if response.Applied {
		t.Fatalf("expected applied=false on replay")
	}
}

func TestCreateDebitIncrementsAppliedCounter(t *testing.T) {
	collector := metrics.New(prometheus.NewRegistry())
	fakeDebit := &fakeDebitUseCase{output: dto.DebitBalanceOutput{AvailableBalanceMinor: 100}}
	controller := NewBalancesController(&fakeGetBalanceUseCase{}, fakeDebit, &fakeCreditUseCase{}, collector, log.New(io.Discard, "", 0))

	req := newBalancesRequest(
		http.MethodPost,
		"/v1/users/user_1/debits",
		[]byte(`{"amount_minor": 300}`),
		map[string]string{"id": "user_1"},
	)
	controller.CreateDebit(httptest.NewRecorder(), req)

	if got := testutil.ToFloat64(collector.DebitsAppliedTotal); got != 1 {
		t.Fatalf("expected debits counter 1, got %v", got)
	}
}

func TestDebitCounterUnchangedOnInsufficientBalance(t *testing.T) {
	collector := metrics.New(prometheus.NewRegistry())
	fakeDebit := &fakeDebitUseCase{
		err: apperrors.NewInsufficientBalance("insufficient_balance", "available balance does not cover the debit", nil),
	}
	controller := NewBalancesController(&fakeGetBalanceUseCase{}, fakeDebit, &fakeCreditUseCase{}, collector, log.New(io.Discard, "", 0))

	req := newBalancesRequest(
		http.MethodPost,
		"/v1/users/user_1/debits",
		[]byte(`{"amount_minor": 999999}`),
		map[string]string{"id": "user_1"},
	)
	controller.CreateDebit(httptest.NewRecorder(), req)

	if got := testutil.ToFloat64(collector.DebitsAppliedTotal); got != 0 {
		t.Fatalf("expected debits counter 0, got %v", got)
	}
}

func TestCreateCreditIncrementsAppliedCounterOnceNotOnReplay(t *testing.T) {
	collector := metrics.New(prometheus.NewRegistry())
	fakeCredit := &fakeCreditUseCase{output: dto.CreditBalanceOutput{Applied: true, AvailableBalanceMinor: 1000}}
	controller := NewBalancesController(&fakeGetBalanceUseCase{}, &fakeDebitUseCase{}, fakeCredit, collector, log.New(io.Discard, "", 0))

	body := []byte(`{"amount_minor": 1000, "source_ref": "adjustment:ticket-42"}`)
	req := newBalancesRequest(http.MethodPost, "/v1/users/user_1/credits", body, map[string]string{"id": "user_1"})
	controller.CreateCredit(httptest.NewRecorder(), req)

	fakeCredit.output.Applied = false
	req = newBalancesRequest(http.MethodPost, "/v1/users/user_1/credits", body, map[string]string{"id": "user_1"})
	controller.CreateCredit(httptest.NewRecorder(), req)

	if got := testutil.ToFloat64(collector.CreditsAppliedTotal); got != 1 {
		t.Fatalf("expected credits counter 1, got %v", got)
	}
}
