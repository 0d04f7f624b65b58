package asynqserver

import (
	"github.com/hibiken/asynq"

	"github.com/mrarejimmyz/SybilShield/internal/cache"
	"github.com/mrarejimmyz/SybilShield/internal/config"
	"github.com/mrarejimmyz/SybilShield/internal/queue/processor"
	"github.com/mrarejimmyz/SybilShield/internal/queue/task"
	"github.com/mrarejimmyz/SybilShield/internal/worker"
)

func New(cfg config.Cache, workers *worker.Workers) (*asynq.Server, *asynq.ServeMux) {
	mux, queues := getQueues(workers)
	srv := asynq.NewServer(
		RedisOptions(cfg),
		asynq.Config{
			Concurrency: 10,
			LogLevel:    asynq.ErrorLevel,
			Queues:      queues,
		},
	)

	return srv, mux
}

func RedisOptions(cfg config.Cache) asynq.RedisConnOpt {
	var opts asynq.RedisConnOpt
	if cfg.Type == cache.RedisTypeCluster {
		opts = asynq.RedisClusterClientOpt{Addrs: cfg.RedisCluster.Addresses, Password: cfg.RedisCluster.Password}
	} else {
		opts = asynq.RedisClientOpt{Addr: cfg.Redis.Address, Password: cfg.Redis.Password}
	}
	return opts
}

func getQueues(workers *worker.Workers) (*asynq.ServeMux, map[string]int) {
	mux := asynq.NewServeMux()
	mux.Handle(task.DeliverWebhookTaskName, processor.NewDeliverWebhookProcessor(workers))
	queues := map[string]int{
		task.DeliverWebhookQueueName: 1,
	}
	return mux, queues
}
