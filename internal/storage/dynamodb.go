package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	dbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/luminadesk/backend/internal/types"
	"github.com/rs/zerolog"
)

// DynamoDBStore implements Store using AWS DynamoDB
type DynamoDBStore struct {
	client *dynamodb.Client
	config DynamoConfig
	logger zerolog.Logger
}

// ruleItem is the persisted shape of an automation rule. The condition
// and action AST round-trips through its JSON encoding; the key fields
// are lifted out for queries.
type ruleItem struct {
	ID       string `dynamodbav:"ID"`
	Priority int    `dynamodbav:"Priority"`
	IsActive bool   `dynamodbav:"IsActive"`
	Payload  string `dynamodbav:"Payload"`
}

// channelItem is the persisted shape of a channel config. The
// monitor-owned fields are lifted out of the payload into their own
// attributes so UpdateChannelStatus can write them with an UpdateItem
// that never touches the credential payload.
type channelItem struct {
	ID            string     `dynamodbav:"ID"`
	Payload       string     `dynamodbav:"Payload"`
	Status        string     `dynamodbav:"Status"`
	ErrorMessage  string     `dynamodbav:"ErrorMessage"`
	LastErrorTime *time.Time `dynamodbav:"LastErrorTime"`
	LastSync      *time.Time `dynamodbav:"LastSync"`
}

func channelItemFrom(cfg types.ChannelConfig) (channelItem, error) {
	payload, err := json.Marshal(cfg)
	if err != nil {
		return channelItem{}, fmt.Errorf("failed to encode channel config: %w", err)
	}
	return channelItem{
		ID:            cfg.ID,
		Payload:       string(payload),
		Status:        string(cfg.Status),
		ErrorMessage:  cfg.ErrorMessage,
		LastErrorTime: cfg.LastErrorTime,
		LastSync:      cfg.LastSync,
	}, nil
}

// channelConfig decodes the payload and overlays the lifted attributes,
// which are authoritative for the monitor-owned fields.
func (item channelItem) channelConfig() (types.ChannelConfig, error) {
	var cfg types.ChannelConfig
	if err := json.Unmarshal([]byte(item.Payload), &cfg); err != nil {
		return types.ChannelConfig{}, fmt.Errorf("failed to decode channel config: %w", err)
	}
	cfg.Status = types.ChannelStatus(item.Status)
	cfg.ErrorMessage = item.ErrorMessage
	cfg.LastErrorTime = item.LastErrorTime
	cfg.LastSync = item.LastSync
	return cfg, nil
}

// NewDynamoDBStore creates a new DynamoDB store
func NewDynamoDBStore(ctx context.Context, cfg DynamoConfig, logger zerolog.Logger) (*DynamoDBStore, error) {
	var client *dynamodb.Client

	if cfg.Mode == DynamoModeLocal {
		// For local mode, build the client directly without LoadDefaultConfig.
		// LoadDefaultConfig probes the EC2 IMDS endpoint which hangs on EC2
		// instances when static credentials are intended.
		client = dynamodb.New(dynamodb.Options{
			Region:       cfg.Region,
			BaseEndpoint: aws.String(cfg.Endpoint),
			Credentials:  credentials.NewStaticCredentialsProvider("local", "local", ""),
		})
	} else {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		client = dynamodb.NewFromConfig(awsCfg)
	}

	store := &DynamoDBStore{
		client: client,
		config: cfg,
		logger: logger,
	}

	if cfg.Mode == DynamoModeLocal {
		if err := CreateTablesIfNotExist(ctx, client, cfg, logger); err != nil {
			return nil, err
		}
	}

	logger.Info().
		Str("mode", string(cfg.Mode)).
		Str("region", cfg.Region).
		Msg("DynamoDB store initialized")

	return store, nil
}

func (s *DynamoDBStore) SaveRule(ctx context.Context, rule types.AutomationRule) error {
	payload, err := json.Marshal(rule)
	if err != nil {
		return fmt.Errorf("failed to encode rule: %w", err)
	}
	item, err := attributevalue.MarshalMap(ruleItem{
		ID:       rule.ID,
		Priority: rule.Priority,
		IsActive: rule.IsActive,
		Payload:  string(payload),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal rule item: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.config.RulesTable),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("failed to save rule: %w", err)
	}
	return nil
}

func (s *DynamoDBStore) ListRules(ctx context.Context) ([]types.AutomationRule, error) {
	var rules []types.AutomationRule
	var lastKey map[string]dbtypes.AttributeValue

	for {
		input := &dynamodb.ScanInput{
			TableName: aws.String(s.config.RulesTable),
		}
		if lastKey != nil {
			input.ExclusiveStartKey = lastKey
		}

		result, err := s.client.Scan(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rules: %w", err)
		}

		var items []ruleItem
		if err := attributevalue.UnmarshalListOfMaps(result.Items, &items); err != nil {
			return nil, fmt.Errorf("failed to unmarshal rule items: %w", err)
		}
		for _, item := range items {
			var rule types.AutomationRule
			if err := json.Unmarshal([]byte(item.Payload), &rule); err != nil {
				// Malformed rules are skipped, not fatal: the engine
				// must keep working with the rules that do decode.
				s.logger.Warn().Err(err).Str("rule_id", item.ID).Msg("skipping undecodable rule")
				continue
			}
			rules = append(rules, rule)
		}

		lastKey = result.LastEvaluatedKey
		if lastKey == nil {
			break
		}
	}
	return rules, nil
}

func (s *DynamoDBStore) SetRuleActive(ctx context.Context, id string, active bool) error {
	// The payload embeds isActive too, so rewrite the whole rule
	rules, err := s.ListRules(ctx)
	if err != nil {
		return err
	}
	for _, rule := range rules {
		if rule.ID == id {
			rule.IsActive = active
			return s.SaveRule(ctx, rule)
		}
	}
	return ErrNotFound
}

func (s *DynamoDBStore) SaveChannelConfig(ctx context.Context, cfg types.ChannelConfig) error {
	chItem, err := channelItemFrom(cfg)
	if err != nil {
		return err
	}
	item, err := attributevalue.MarshalMap(chItem)
	if err != nil {
		return fmt.Errorf("failed to marshal channel item: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.config.ChannelsTable),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("failed to save channel config: %w", err)
	}
	return nil
}

func (s *DynamoDBStore) GetChannelConfig(ctx context.Context, id string) (types.ChannelConfig, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.config.ChannelsTable),
		Key: map[string]dbtypes.AttributeValue{
			"ID": &dbtypes.AttributeValueMemberS{Value: id},
		},
	})
	if err != nil {
		return types.ChannelConfig{}, fmt.Errorf("failed to get channel config: %w", err)
	}
	if result.Item == nil {
		return types.ChannelConfig{}, ErrNotFound
	}

	var item channelItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return types.ChannelConfig{}, fmt.Errorf("failed to unmarshal channel item: %w", err)
	}
	return item.channelConfig()
}

func (s *DynamoDBStore) ListChannelConfigs(ctx context.Context) ([]types.ChannelConfig, error) {
	result, err := s.client.Scan(ctx, &dynamodb.ScanInput{
		TableName: aws.String(s.config.ChannelsTable),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan channel configs: %w", err)
	}

	var items []channelItem
	if err := attributevalue.UnmarshalListOfMaps(result.Items, &items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal channel items: %w", err)
	}
	configs := make([]types.ChannelConfig, 0, len(items))
	for _, item := range items {
		cfg, err := item.channelConfig()
		if err != nil {
			s.logger.Warn().Err(err).Str("channel_id", item.ID).Msg("skipping undecodable channel config")
			continue
		}
		configs = append(configs, cfg)
	}
	return configs, nil
}

// UpdateChannelStatus writes only the lifted monitor-owned attributes,
// so a concurrent admin SaveChannelConfig can never be reverted by a
// stale read-modify-write of the credential payload.
func (s *DynamoDBStore) UpdateChannelStatus(ctx context.Context, id string, status types.ChannelStatus, errorMessage string, lastErrorTime, lastSync *time.Time) error {
	update := expression.
		Set(expression.Name("Status"), expression.Value(string(status))).
		Set(expression.Name("ErrorMessage"), expression.Value(errorMessage)).
		Set(expression.Name("LastErrorTime"), expression.Value(lastErrorTime)).
		Set(expression.Name("LastSync"), expression.Value(lastSync))
	expr, err := expression.NewBuilder().
		WithUpdate(update).
		WithCondition(expression.AttributeExists(expression.Name("ID"))).
		Build()
	if err != nil {
		return fmt.Errorf("failed to build status update expression: %w", err)
	}

	_, err = s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.config.ChannelsTable),
		Key: map[string]dbtypes.AttributeValue{
			"ID": &dbtypes.AttributeValueMemberS{Value: id},
		},
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		var conditionFailed *dbtypes.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to update channel status: %w", err)
	}
	return nil
}

// NewStore creates the appropriate store based on configuration
func NewStore(ctx context.Context, logger zerolog.Logger) (Store, error) {
	cfg := LoadDynamoConfig()

	switch cfg.Mode {
	case DynamoModeLocal, DynamoModeAWS:
		return NewDynamoDBStore(ctx, cfg, logger)
	default:
		logger.Info().Msg("DynamoDB disabled (DYNAMO_MODE=none), using in-memory store")
		return NewMemoryStore(), nil
	}
}

// CreateTablesIfNotExist creates DynamoDB tables for local development
func CreateTablesIfNotExist(ctx context.Context, client *dynamodb.Client, config DynamoConfig, logger zerolog.Logger) error {
	tables := []struct {
		name string
		pk   string
	}{
		{config.RulesTable, "ID"},
		{config.ChannelsTable, "ID"},
	}

	for _, table := range tables {
		_, err := client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
			TableName: aws.String(table.name),
		})
		if err == nil {
			logger.Info().Str("table", table.name).Msg("table already exists")
			continue
		}

		_, err = client.CreateTable(ctx, &dynamodb.CreateTableInput{
			TableName: aws.String(table.name),
			KeySchema: []dbtypes.KeySchemaElement{
				{AttributeName: aws.String(table.pk), KeyType: dbtypes.KeyTypeHash},
			},
			AttributeDefinitions: []dbtypes.AttributeDefinition{
				{AttributeName: aws.String(table.pk), AttributeType: dbtypes.ScalarAttributeTypeS},
			},
			BillingMode: dbtypes.BillingModePayPerRequest,
		})
		if err != nil {
			return fmt.Errorf("failed to create table %s: %w", table.name, err)
		}
		logger.Info().Str("table", table.name).Msg("table created")
	}

	return nil
}

// ListActiveRules scans with a server-side filter on the lifted
// IsActive attribute, so inactive rules never cross the wire.
func (s *DynamoDBStore) ListActiveRules(ctx context.Context) ([]types.AutomationRule, error) {
	filter := expression.Name("IsActive").Equal(expression.Value(true))
	expr, err := expression.NewBuilder().WithFilter(filter).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build expression: %w", err)
	}

	result, err := s.client.Scan(ctx, &dynamodb.ScanInput{
		TableName:                 aws.String(s.config.RulesTable),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan active rules: %w", err)
	}

	var items []ruleItem
	if err := attributevalue.UnmarshalListOfMaps(result.Items, &items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal rule items: %w", err)
	}
	var rules []types.AutomationRule
	for _, item := range items {
		var rule types.AutomationRule
		if err := json.Unmarshal([]byte(item.Payload), &rule); err != nil {
			s.logger.Warn().Err(err).Str("rule_id", item.ID).Msg("skipping undecodable rule")
			continue
		}
		rules = append(rules, rule)
	}
	return rules, nil
}
