// Package datagen generates randomized seed records. Producers are pure:
// they build values and never touch a store.
package datagen

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
)

// User is a relational seed record owning a canonical ID.
type User struct {
	ID        string
	Name      string
	Email     string
	Country   string
	CreatedAt time.Time
}

// Product is a relational seed record.
type Product struct {
	ID       string
	Name     string
	Category string
	PriceCts int64
}

// Order links a user to a product in the relational store.
type Order struct {
	ID        string
	UserID    string
	ProductID string
	Quantity  int
	TotalCts  int64
	Status    string
}

// Task is a document-store seed record, optionally assigned to a user.
type Task struct {
	ID          string
	Title       string
	Description string
	Status      string
	AssigneeID  string
	Priority    int
}

// Profile is a document-store seed record describing a user.
type Profile struct {
	ID        string
	UserID    string
	Bio       string
	AvatarURL string
	Interests []string
}

// Message is a cache seed record keyed under the scenario namespace.
type Message struct {
	ID     string
	UserID string
	Body   string
	TTLSec int
}

// Document is a vector-index seed record with its embedding.
type Document struct {
	ID        string
	Text      string
	Embedding []float32
}

var orderStatuses = []string{"pending", "paid", "shipped", "delivered", "cancelled"}
var taskStatuses = []string{"todo", "in_progress", "done"}

// Generator produces randomized records, deterministically when seeded.
type Generator struct {
	faker *gofakeit.Faker
	rng   *rand.Rand
}

// New creates a generator with a random source.
func New() *Generator {
	return NewSeeded(time.Now().UnixNano())
}

// NewSeeded creates a deterministic generator for tests and reproducible
// scenarios.
func NewSeeded(seed int64) *Generator {
	return &Generator{
		faker: gofakeit.New(uint64(seed)),
		rng:   rand.New(rand.NewSource(seed)),
	}
}

// Users generates n user records.
func (g *Generator) Users(n int) []User {
	users := make([]User, n)
	for i := range users {
		users[i] = User{
			ID:        uuid.NewString(),
			Name:      g.faker.Name(),
			Email:     g.faker.Email(),
			Country:   g.faker.CountryAbr(),
			CreatedAt: g.faker.DateRange(time.Now().AddDate(-2, 0, 0), time.Now()),
		}
	}
	return users
}

// Products generates n product records.
func (g *Generator) Products(n int) []Product {
	products := make([]Product, n)
	for i := range products {
		products[i] = Product{
			ID:       uuid.NewString(),
			Name:     g.faker.ProductName(),
			Category: g.faker.ProductCategory(),
			PriceCts: int64(g.rng.Intn(99900) + 100),
		}
	}
	return products
}

// Orders generates n orders referencing the given user and product IDs.
// With empty ID sets, synthetic IDs are used (no referential integrity).
func (g *Generator) Orders(n int, userIDs, productIDs []string) []Order {
	orders := make([]Order, n)
	for i := range orders {
		qty := g.rng.Intn(5) + 1
		orders[i] = Order{
			ID:        uuid.NewString(),
			UserID:    g.pick(userIDs),
			ProductID: g.pick(productIDs),
			Quantity:  qty,
			TotalCts:  int64(qty) * int64(g.rng.Intn(99900)+100),
			Status:    orderStatuses[g.rng.Intn(len(orderStatuses))],
		}
	}
	return orders
}

// Tasks generates n task documents, assigned to the given users when
// provided.
func (g *Generator) Tasks(n int, userIDs []string) []Task {
	tasks := make([]Task, n)
	for i := range tasks {
		tasks[i] = Task{
			ID:          uuid.NewString(),
			Title:       g.faker.Sentence(4),
			Description: g.faker.Paragraph(1, 2, 8, " "),
			Status:      taskStatuses[g.rng.Intn(len(taskStatuses))],
			AssigneeID:  g.pick(userIDs),
			Priority:    g.rng.Intn(5) + 1,
		}
	}
	return tasks
}

// Profiles generates n user profiles, linked to the given users when
// provided.
func (g *Generator) Profiles(n int, userIDs []string) []Profile {
	profiles := make([]Profile, n)
	for i := range profiles {
		interests := make([]string, g.rng.Intn(3)+1)
		for j := range interests {
			interests[j] = g.faker.Hobby()
		}
		profiles[i] = Profile{
			ID:        uuid.NewString(),
			UserID:    g.pick(userIDs),
			Bio:       g.faker.Sentence(10),
			AvatarURL: g.faker.ImageURL(128, 128),
			Interests: interests,
		}
	}
	return profiles
}

// Messages generates n cache messages, attributed to the given users when
// provided.
func (g *Generator) Messages(n int, userIDs []string) []Message {
	messages := make([]Message, n)
	for i := range messages {
		messages[i] = Message{
			ID:     uuid.NewString(),
			UserID: g.pick(userIDs),
			Body:   g.faker.Sentence(8),
			TTLSec: 3600 + g.rng.Intn(82800),
		}
	}
	return messages
}

// Documents generates n vector documents with embeddings of the given
// dimensionality, normalized to unit length.
func (g *Generator) Documents(n, dimensions int) []Document {
	docs := make([]Document, n)
	for i := range docs {
		docs[i] = Document{
			ID:        uuid.NewString(),
			Text:      g.faker.Paragraph(1, 3, 10, " "),
			Embedding: g.embedding(dimensions),
		}
	}
	return docs
}

// pick returns a random element of ids, or a synthetic ID when empty.
func (g *Generator) pick(ids []string) string {
	if len(ids) == 0 {
		return uuid.NewString()
	}
	return ids[g.rng.Intn(len(ids))]
}

// embedding builds a random unit vector.
func (g *Generator) embedding(dimensions int) []float32 {
	vec := make([]float32, dimensions)
	var norm float64
	for i := range vec {
		v := g.rng.Float64()*2 - 1
		vec[i] = float32(v)
		norm += v * v
	}
	if norm == 0 {
		vec[0] = 1
		return vec
	}
	scale := 1 / float32(math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}
	return vec
}

// Key builds the cache key for a message under the scenario namespace.
func Key(prefix, scenario, entity, id string) string {
	return fmt.Sprintf("%s%s:%s:%s", prefix, scenario, entity, id)
}
