package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

const startTimeKey = "metrics:start_time"

// RegisterGORMCallbacks observes every create, query, update and delete issued through db
func RegisterGORMCallbacks(db *gorm.DB, reg prometheus.Registerer) error {
	if db == nil || reg == nil {
		return nil
	}

	queriesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "esiagate_db_queries_total",
			Help: "Total number of database statements executed.",
		},
		[]string{"operation", "result"},
	)

	queryDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "esiagate_db_query_duration_seconds",
			Help:    "Duration of database statements in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	if err := reg.Register(queriesTotal); err != nil {
		return err
	}

	if err := reg.Register(queryDuration); err != nil {
		return err
	}

	before := func(tx *gorm.DB) {
		tx.InstanceSet(startTimeKey, time.Now())
	}

	after := func(operation string) func(*gorm.DB) {
		return func(tx *gorm.DB) {
			value, ok := tx.InstanceGet(startTimeKey)
			if !ok {
				return
			}
			start, ok := value.(time.Time)
			if !ok {
				return
			}
			result := "success"
			if tx.Error != nil && tx.Error != gorm.ErrRecordNotFound {
				result = "error"
			}
			queriesTotal.WithLabelValues(operation, result).Inc()
			queryDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
		}
	}

	callbacks := db.Callback()

	steps := []struct {
		operation string
		before    func(name string, fn func(*gorm.DB)) error
		after     func(name string, fn func(*gorm.DB)) error
	}{
		{
			operation: "create",
			before:    callbacks.Create().Before("gorm:create").Register,
			after:     callbacks.Create().After("gorm:create").Register,
		},
		{
			operation: "query",
			before:    callbacks.Query().Before("gorm:query").Register,
			after:     callbacks.Query().After("gorm:query").Register,
		},
		{
			operation: "update",
			before:    callbacks.Update().Before("gorm:update").Register,
			after:     callbacks.Update().After("gorm:update").Register,
		},
		{
			operation: "delete",
			before:    callbacks.Delete().Before("gorm:delete").Register,
			after:     callbacks.Delete().After("gorm:delete").Register,
		},
	}

	for _, step := range steps {
		if err := step.before("metrics:before_"+step.operation, before); err != nil {
			return err
		}
		if err := step.after("metrics:after_"+step.operation, after(step.operation)); err != nil {
			return err
		}
	}

	return nil
}
