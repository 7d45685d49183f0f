package picklist

import (
	"testing"

	"github.com/google/uuid"

	"github.com/golfdraft/golfdraft/internal/models"
)

func testField() []models.Golfer {
	names := []string{"Jack Nicklaus", "Arnold Palmer", "Gary Player", "Tom Watson"}
	field := make([]models.Golfer, len(names))
	for i, name := range names {
		field[i] = models.Golfer{ID: uuid.New(), Name: name, WGR: i + 1, Seq: i}
	}
	return field
}

func TestResolveNamesExact(t *testing.T) {
	field := testField()

	res := ResolveNames([]string{"arnold palmer", "JACK NICKLAUS"}, field)
	if !res.Completed {
		t.Fatalf("resolution incomplete: %+v", res.Suggestions)
	}
	want := []uuid.UUID{field[1].ID, field[0].ID}
	if len(res.Golfers) != len(want) {
		t.Fatalf("got %d golfers, want %d", len(res.Golfers), len(want))
	}
	for i, id := range res.Golfers {
		if id != want[i] {
			t.Errorf("position %d: got %s, want %s", i, id, want[i])
		}
	}
}

func TestResolveNamesSuggestions(t *testing.T) {
	field := testField()

	res := ResolveNames([]string{"Jack Nicklauss"}, field)
	if res.Completed {
		t.Fatal("misspelled name resolved as complete")
	}
	if len(res.Golfers) != 0 {
		t.Errorf("incomplete resolution returned %d golfers", len(res.Golfers))
	}

	suggestions, ok := res.Suggestions["Jack Nicklauss"]
	if !ok {
		t.Fatalf("no suggestions for misspelled name: %+v", res.Suggestions)
	}
	if len(suggestions) == 0 || suggestions[0].Target != "Jack Nicklaus" {
		t.Errorf("got first suggestion %+v, want Jack Nicklaus", suggestions)
	}
	if suggestions[0].Distance != 1 {
		t.Errorf("got distance %d, want 1", suggestions[0].Distance)
	}
}

func TestResolveNamesAllOrNothing(t *testing.T) {
	field := testField()

	// One good name and one bad name: nothing resolves.
	res := ResolveNames([]string{"Jack Nicklaus", "Tom Watsonn"}, field)
	if res.Completed {
		t.Fatal("resolution completed with an unmatched name")
	}
	if len(res.Golfers) != 0 {
		t.Errorf("got %d golfers, want none", len(res.Golfers))
	}
	if _, ok := res.Suggestions["Tom Watsonn"]; !ok {
		t.Error("no suggestions for the unmatched name")
	}
	if _, ok := res.Suggestions["Jack Nicklaus"]; ok {
		t.Error("matched name appears in suggestions")
	}
}

func TestResolveNamesAccentedSuggestions(t *testing.T) {
	field := testField()
	field = append(field, models.Golfer{ID: uuid.New(), Name: "Séamus Power", WGR: 5, Seq: 4})

	// A one-letter typo in an accented name still ranks that name first.
	res := ResolveNames([]string{"Séamus Powers"}, field)
	if res.Completed {
		t.Fatal("misspelled name resolved as complete")
	}
	suggestions := res.Suggestions["Séamus Powers"]
	if len(suggestions) == 0 || suggestions[0].Target != "Séamus Power" {
		t.Errorf("got first suggestion %+v, want Séamus Power", suggestions)
	}
	if suggestions[0].Distance != 1 {
		t.Errorf("got distance %d, want 1", suggestions[0].Distance)
	}
}

func TestSuggestionCountCap(t *testing.T) {
	field := testField()

	res := ResolveNames([]string{"zzzz"}, field)
	suggestions := res.Suggestions["zzzz"]
	if len(suggestions) > SuggestionCount {
		t.Errorf("got %d suggestions, want at most %d", len(suggestions), SuggestionCount)
	}
}

func TestLevenshtein(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"", "abc", 3},
		{"abc", "abc", 0},
		{"kitten", "sitting", 3},
		{"jack nicklaus", "jack nicklauss", 1},
		{"séamus power", "seamus power", 1},
		{"josé maría olazábal", "jose maria olazabal", 3},
	}
	for _, tc := range cases {
		if got := levenshtein(tc.a, tc.b); got != tc.want {
			t.Errorf("levenshtein(%q, %q) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
	}
}
