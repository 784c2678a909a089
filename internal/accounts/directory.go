// Package accounts holds the pure functions over the shared account list:
// display-name derivation, display ordering, and the replace/merge helpers
// every mutation of the list must go through.
package accounts

import (
	"sort"
	"strconv"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/bmaret/boursomate/internal/models"
)

// Incognito placeholder surnames for trading accounts. The two cohorts are
// told apart by whether the real account name mentions PEA.
const (
	peaPlaceholder = "PEA DUPONT"
	ctoPlaceholder = "CTO DUPONT"
)

// Classify returns the account kind. The kind is a trusted backend field;
// this exists so callers never reach for name heuristics instead.
func Classify(a models.Account) models.AccountKind {
	return a.Kind
}

// IsPea reports whether an account name marks a PEA (case-insensitive).
func IsPea(a models.Account) bool {
	return strings.Contains(strings.ToUpper(a.Name), "PEA")
}

// DisplayName returns the name to show for a. When incognito is off this is
// the raw account name. When on, a placeholder unique within same-kind
// accounts is generated instead: "Savings 2", "Banking 1", "Loan 1", and for
// trading accounts "PEA DUPONT"/"CTO DUPONT" per cohort, suffixed with the
// 1-based cohort ordinal only when the cohort has more than one member.
func DisplayName(a models.Account, all []models.Account, incognito bool) string {
	if !incognito {
		return a.Name
	}

	if a.Kind == models.KindTrading {
		pea := IsPea(a)
		cohort := filter(all, func(b models.Account) bool {
			return b.Kind == models.KindTrading && IsPea(b) == pea
		})
		base := ctoPlaceholder
		if pea {
			base = peaPlaceholder
		}
		if len(cohort) == 1 {
			return base
		}
		return base + " " + strconv.Itoa(ordinal(cohort, a.ID))
	}

	kin := filter(all, func(b models.Account) bool { return b.Kind == a.Kind })
	return a.Kind.Label() + " " + strconv.Itoa(ordinal(kin, a.ID))
}

// SortForDisplay returns a new slice with PEA accounts first and remaining
// ties broken by locale-aware name comparison. The input is not modified.
func SortForDisplay(accounts []models.Account) []models.Account {
	sorted := make([]models.Account, len(accounts))
	copy(sorted, accounts)

	coll := collate.New(language.French)
	sort.SliceStable(sorted, func(i, j int) bool {
		pi, pj := IsPea(sorted[i]), IsPea(sorted[j])
		if pi != pj {
			return pi
		}
		return coll.CompareString(sorted[i].Name, sorted[j].Name) < 0
	})
	return sorted
}

// MergeCashBalance returns a copy of accounts where the account with the
// given id carries the cash balance. Accounts are matched by id so a merge
// can never resurrect a stale list; unknown ids leave the list unchanged.
func MergeCashBalance(accounts []models.Account, accountID string, cash decimal.Decimal) []models.Account {
	merged := make([]models.Account, len(accounts))
	copy(merged, accounts)
	for i := range merged {
		if merged[i].ID == accountID {
			c := cash
			merged[i].CashBalance = &c
		}
	}
	return merged
}

// TotalBalance sums all balances in minor units.
func TotalBalance(accounts []models.Account) int64 {
	var total int64
	for _, a := range accounts {
		total += a.Balance
	}
	return total
}

// FormatBalance renders a minor-unit amount as a euro string.
func FormatBalance(minor int64) string {
	return money.New(minor, money.EUR).Display()
}

func filter(accounts []models.Account, keep func(models.Account) bool) []models.Account {
	var out []models.Account
	for _, a := range accounts {
		if keep(a) {
			out = append(out, a)
		}
	}
	return out
}

// ordinal is the 1-based position of id within the cohort, 0 if absent.
func ordinal(cohort []models.Account, id string) int {
	for i, a := range cohort {
		if a.ID == id {
			return i + 1
		}
	}
	return 0
}
