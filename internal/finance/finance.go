// Package finance is a personal finance schema: accounts, transactions,
// goals and the metadata and tags attached to them. It exercises every
// ownership shape the engine supports and backs the CLI's default schema
// and the engine tests.
package finance

import (
	"time"

	"github.com/surrealcrud/surrealcrud/pkg/models"
	"github.com/surrealcrud/surrealcrud/pkg/schema"
)

// Currency is global reference data: it has no owner.
type Currency struct {
	Code string `json:"code" crud:"not_empty,length_in_range(3, 3)"`
	Name string `json:"name"`
}

func (Currency) TableName() string { return "currencies" }

type Metadata struct {
	UserID      models.ID `json:"user_id"`
	Title       string    `json:"title,omitempty" crud:"length_at_most(120)"`
	Description string    `json:"description,omitempty"`
}

func (Metadata) TableName() string { return "metadata" }

type Tag struct {
	UserID     models.ID           `json:"user_id"`
	Title      string              `json:"title" crud:"not_empty"`
	MetadataID models.Of[Metadata] `json:"metadata_id"`
}

func (Tag) TableName() string { return "tags" }

// MetadataTag links metadata to tags. Exception marks a tag explicitly
// excluded from the metadata.
type MetadataTag struct {
	MetadataID models.Of[Metadata] `json:"metadata_id"`
	TagID      models.Of[Tag]      `json:"tag_id"`
	Exception  bool                `json:"exception"`
}

func (MetadataTag) TableName() string { return "metadata_tags" }

type Account struct {
	UserID     models.ID `json:"user_id"`
	Title      string    `json:"title" crud:"not_empty"`
	CurrencyID models.ID `json:"currency_id" crud:"link=currencies"`
	Balance    int64     `json:"balance"`
}

func (Account) TableName() string { return "accounts" }

type Transaction struct {
	AccountID  models.Of[Account]  `json:"account_id"`
	Amount     int64               `json:"amount" crud:"ne_zero"`
	Date       time.Time           `json:"date"`
	MetadataID models.Of[Metadata] `json:"metadata_id"`
}

func (Transaction) TableName() string { return "transactions" }

type FinancialGoal struct {
	UserID       models.ID           `json:"user_id"`
	CurrencyID   models.ID           `json:"currency_id" crud:"link=currencies"`
	StartDate    time.Time           `json:"start_date" crud:"v1_lt_v2(end_date)"`
	EndDate      time.Time           `json:"end_date"`
	TargetIncome int64               `json:"target_income" crud:"gt_zero"`
	MetadataID   models.Of[Metadata] `json:"metadata_id"`
}

func (FinancialGoal) TableName() string { return "financial_goals" }

// AutoDistribution routes a ratio of every record carrying RecordMetadataID
// into an account.
type AutoDistribution struct {
	Ratio            float64             `json:"ratio" crud:"gt_zero"`
	AccountID        models.Of[Account]  `json:"account_id"`
	MetadataID       models.Of[Metadata] `json:"metadata_id"`
	RecordMetadataID models.Of[Metadata] `json:"record_metadata_id"`
}

func (AutoDistribution) TableName() string { return "auto_distributions" }

type FinancialGoalAutoDistribution struct {
	FinancialGoalID    models.Of[FinancialGoal]    `json:"financial_goal_id"`
	AutoDistributionID models.Of[AutoDistribution] `json:"auto_distribution_id"`
}

func (FinancialGoalAutoDistribution) TableName() string { return "financial_goal_auto_distributions" }

// Entities returns the finance schema in declaration order.
func Entities() []schema.Entity {
	mtag := schema.MustFromStruct[MetadataTag]("metadata_id.user_id")
	mtag.Junction = &schema.Junction{A: "metadata_id", B: "tag_id"}

	return []schema.Entity{
		schema.MustFromStruct[Currency](),
		schema.MustFromStruct[Metadata]("user_id"),
		schema.MustFromStruct[Tag]("user_id", "metadata_id.user_id"),
		mtag,
		schema.MustFromStruct[Account]("user_id"),
		schema.MustFromStruct[Transaction]("account_id.user_id", "metadata_id.user_id"),
		schema.MustFromStruct[FinancialGoal]("user_id", "metadata_id.user_id"),
		schema.MustFromStruct[AutoDistribution]("account_id.user_id", "metadata_id.user_id", "record_metadata_id.user_id"),
		schema.MustFromStruct[FinancialGoalAutoDistribution]("financial_goal_id.user_id", "auto_distribution_id.account_id.user_id"),
	}
}

// Registry builds the finance registry.
func Registry() (*schema.Registry, error) {
	return schema.NewRegistry(Entities()...)
}

func MustRegistry() *schema.Registry {
	return schema.MustRegistry(Entities()...)
}
