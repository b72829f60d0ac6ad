package domain

import (
	"errors"
	"testing"
)

var (
	fiver  = Money{Currency: "gbp", Amount: 5}
	tenner = Money{Currency: "gbp", Amount: 10}
)

func TestMoneyValueEquality(t *testing.T) {
	if (Money{Currency: "gbp", Amount: 10}) != (Money{Currency: "gbp", Amount: 10}) {
		t.Fatal("money with identical attributes should be equal")
	}
	if (Money{Currency: "gbp", Amount: 10}) == (Money{Currency: "usd", Amount: 10}) {
		t.Fatal("money in different currencies should differ")
	}
}

func TestCanAddMoneyInSameCurrency(t *testing.T) {
	got, err := fiver.Add(fiver)
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if got != tenner {
		t.Fatalf("expected %v, got %v", tenner, got)
	}
}

func TestCanSubtractMoney(t *testing.T) {
	got, err := tenner.Sub(fiver)
	if err != nil {
		t.Fatalf("sub failed: %v", err)
	}
	if got != fiver {
		t.Fatalf("expected %v, got %v", fiver, got)
	}
}

func TestAddingDifferentCurrenciesFails(t *testing.T) {
	_, err := Money{Currency: "usd", Amount: 10}.Add(Money{Currency: "gbp", Amount: 10})
	if !errors.Is(err, ErrCurrencyMismatch) {
		t.Fatalf("expected currency mismatch, got %v", err)
	}
}

func TestCanMultiplyMoneyByANumber(t *testing.T) {
	got := fiver.Mul(5)
	want := Money{Currency: "gbp", Amount: 25}
	if got != want {
		t.Fatalf("expected %v, got %v", want, got)
	}
}
