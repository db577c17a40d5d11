package model

const KeyValueCollection = "key_value"

type KeyValueDocument struct {
	Key         string `bson:"_id"`
	Value       string `bson:"value"`
	LastUpdated int64  `bson:"last_updated"`
}
