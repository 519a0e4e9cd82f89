package tasks

import (
	"wordforms.dev/declensions/redis"
)

type Client struct {
	Runs RunTasks
}

func NewClient() (Client, error) {
	runsRedisClient, err := redis.NewClient(RunsDB)
	if err != nil {
		return Client{}, err
	}
	return Client{
		Runs: RunTasks{client: runsRedisClient},
	}, nil
}

func (client *Client) Close() {
	_ = client.Runs.client.Close()
}
