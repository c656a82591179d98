package donation

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/kitabu/core"
	"github.com/trezcool/kitabu/tests"
)

func TestService_Accumulate(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewService(db)
	ctx := context.Background()

	steps := []struct {
		ne   NewEntry
		want Entry
	}{
		{NewEntry{Year: 2024, Month: "March", RollNo: "7", Amount: 500, Kind: KindDonation}, Entry{Donation: 500}},
		{NewEntry{Year: 2024, Month: "March", RollNo: "7", Amount: 300, Kind: KindDonation}, Entry{Donation: 800}},
		{NewEntry{Year: 2024, Month: "March", RollNo: "7", Amount: 100, Kind: KindFine}, Entry{Donation: 800, Fine: 100}},
		{NewEntry{Year: 2024, Month: "April", RollNo: "7", Amount: 50, Kind: KindDonation}, Entry{Donation: 50}},
	}
	for _, s := range steps {
		got, err := svc.Accumulate(ctx, s.ne)
		require.NoError(t, err)
		assert.Equal(t, s.want, got)
	}

	ledger, err := svc.Ledger(ctx)
	require.NoError(t, err)
	assert.Equal(t, Ledger{
		"2024": {
			"March": {"7": {Donation: 800, Fine: 100}},
			"April": {"7": {Donation: 50}},
		},
	}, ledger)
}

func TestService_AccumulateOnLegacyKey(t *testing.T) {
	db, backend := testutil.NewRawDB(t)
	svc := NewService(db)
	ctx := context.Background()
	backend.Set(core.DocDonations, []byte(`{"2024": {"March": {"007": {"donation": 500, "fine": 0}}}}`))

	got, err := svc.Accumulate(ctx, NewEntry{Year: 2024, Month: "March", RollNo: core.NewRollNo("007"), Amount: 300, Kind: KindDonation})
	require.NoError(t, err)
	assert.Equal(t, Entry{Donation: 800}, got)

	ledger, err := svc.Ledger(ctx)
	require.NoError(t, err)
	assert.Equal(t, Ledger{"2024": {"March": {"7": {Donation: 800}}}}, ledger)
}

func TestMonthEntries_UnmarshalMergesLegacyKeys(t *testing.T) {
	var ledger Ledger
	raw := `{"2024": {"March": {"007": 500, "7": {"donation": 20, "fine": 5}, " A1 ": 3}, "May": null}}`
	require.NoError(t, json.Unmarshal([]byte(raw), &ledger))

	assert.Equal(t, MonthEntries{"7": {Donation: 520, Fine: 5}, "A1": {Donation: 3}}, ledger["2024"]["March"])
	assert.Nil(t, ledger["2024"]["May"])
}

func TestEntry_UnmarshalLegacyLeaf(t *testing.T) {
	var ledger Ledger
	raw := `{"2023": {"May": {"7": 250, "9": {"donation": 10, "fine": 5}}}}`
	require.NoError(t, json.Unmarshal([]byte(raw), &ledger))

	assert.Equal(t, Entry{Donation: 250}, ledger["2023"]["May"]["7"])
	assert.Equal(t, Entry{Donation: 10, Fine: 5}, ledger["2023"]["May"]["9"])
	assert.Equal(t, float64(15), ledger["2023"]["May"]["9"].Total())

	var e Entry
	assert.Error(t, json.Unmarshal([]byte(`"lots"`), &e))
}

func TestLedger_RemoveRollNo(t *testing.T) {
	ledger := Ledger{
		"2023": {"May": {"007": {Donation: 250}, "9": {Donation: 10}}},
		"2024": {
			"March": {"7": {Donation: 800, Fine: 100}},
			"April": {"9": {Donation: 1}},
		},
	}

	removed, found := ledger.RemoveRollNo("7")
	assert.True(t, found)
	assert.Equal(t, float64(1150), removed)
	assert.Equal(t, Ledger{
		"2023": {"May": {"9": {Donation: 10}}},
		"2024": {
			"March": {},
			"April": {"9": {Donation: 1}},
		},
	}, ledger)

	removed, found = ledger.RemoveRollNo("42")
	assert.False(t, found)
	assert.Zero(t, removed)
}

func TestService_Counters(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewService(db)

	got, err := svc.Counters(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)

	testutil.PutDoc(t, db, core.DocCounters, Counters{CounterDonatedRemoved: 12.5})
	got, err = svc.Counters(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Counters{CounterDonatedRemoved: 12.5}, got)

	var c Counters
	c.Add(CounterDonatedRemoved, 2)
	c.Add(CounterDonatedRemoved, 3)
	assert.Equal(t, Counters{CounterDonatedRemoved: 5}, c)
}

func TestNewEntry_Validate(t *testing.T) {
	validate, translator := testutil.NewValidator(InitValidators)

	tests := []struct {
		name     string
		ne       NewEntry
		wantErrs map[string]string
		wantNe   NewEntry
	}{
		{
			name:   "defaults",
			ne:     NewEntry{Year: 2024, Month: "MARCH", RollNo: "7", Amount: 5},
			wantNe: NewEntry{Year: 2024, Month: "March", RollNo: "7", Amount: 5, Kind: KindDonation},
		},
		{
			name:   "fine",
			ne:     NewEntry{Year: 2024, Month: "march", RollNo: "7", Amount: 5, Kind: "fine"},
			wantNe: NewEntry{Year: 2024, Month: "March", RollNo: "7", Amount: 5, Kind: KindFine},
		},
		{
			name:     "padded kind",
			ne:       NewEntry{Year: 2024, Month: "March", RollNo: "7", Amount: 5, Kind: " fine "},
			wantErrs: map[string]string{"kind": "kind must be one of: donation, fine"},
		},
		{
			name:     "uppercase kind",
			ne:       NewEntry{Year: 2024, Month: "March", RollNo: "7", Amount: 5, Kind: "Fine"},
			wantErrs: map[string]string{"kind": "kind must be one of: donation, fine"},
		},
		{
			name:   "largest amount",
			ne:     NewEntry{Year: 2024, Month: "March", RollNo: "7", Amount: core.MaxAmount},
			wantNe: NewEntry{Year: 2024, Month: "March", RollNo: "7", Amount: core.MaxAmount, Kind: KindDonation},
		},
		{
			name:     "amount too large",
			ne:       NewEntry{Year: 2024, Month: "March", RollNo: "7", Amount: 1e308},
			wantErrs: map[string]string{"amount": "amount is too large"},
		},
		{
			name:     "unknown kind",
			ne:       NewEntry{Year: 2024, Month: "March", RollNo: "7", Amount: 5, Kind: "gift"},
			wantErrs: map[string]string{"kind": "kind must be one of: donation, fine"},
		},
		{
			name:     "not a month",
			ne:       NewEntry{Year: 2024, Month: "Marchy", RollNo: "7", Amount: 5},
			wantErrs: map[string]string{"month": "month must be a calendar month name"},
		},
		{
			name:     "negative amount",
			ne:       NewEntry{Year: 2024, Month: "March", RollNo: "7", Amount: -5},
			wantErrs: map[string]string{"amount": "amount must be greater than 0"},
		},
		{
			name: "missing fields",
			ne:   NewEntry{Month: "March"},
			wantErrs: map[string]string{
				"year":   "this field is required",
				"rollNo": "this field is required",
				"amount": "this field is required",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ne.Validate(validate)
			if tt.wantErrs == nil {
				require.NoError(t, err)
				assert.Equal(t, tt.wantNe, tt.ne)
				return
			}
			require.Error(t, err)
			verrs, ok := err.(validator.ValidationErrors)
			require.True(t, ok)
			got := make(map[string]string, len(verrs))
			for _, fe := range verrs {
				got[fe.Field()] = fe.Translate(translator)
			}
			assert.Equal(t, tt.wantErrs, got)
		})
	}
}
