package redis

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"carpet-quiz-service/internal/domain"
	"carpet-quiz-service/internal/quiz"
	miniredis "github.com/alicebob/miniredis/v2"
)

func TestSessionStoreSetsAndClearsKeys(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	store := NewSessionStore(newClient(mr), time.Minute)

	session := quiz.NewSession(sampleCatalog(), rand.New(rand.NewSource(1)))
	store.Put("player-1", session)
	if !mr.Exists("quiz:session:player-1") {
		t.Fatalf("expected redis liveness key to be set")
	}
	if got, ok := store.Get("player-1"); !ok || got != session {
		t.Fatalf("expected stored session back")
	}

	store.Delete("player-1")
	if mr.Exists("quiz:session:player-1") {
		t.Fatalf("expected redis liveness key to be removed")
	}
	if _, ok := store.Get("player-1"); ok {
		t.Fatalf("expected session removed")
	}
}

func sampleCatalog() domain.Catalog {
	items := make([]domain.QuizItem, 0, 5)
	for i := 0; i < 5; i++ {
		items = append(items, domain.QuizItem{
			ID:           fmt.Sprintf("hotel-%d-lobby-main", i),
			PrimaryLabel: fmt.Sprintf("Hotel %d", i),
		})
	}
	return domain.Catalog{Items: items}
}
