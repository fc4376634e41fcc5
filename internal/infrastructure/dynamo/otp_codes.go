package dynamo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/trade-journal-api/internal/domain"
)

// OTPRepo stores one-time codes. PK: user_id, SK: otp_id.
type OTPRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewOTPRepo(client *dynamodb.Client, tableName string) *OTPRepo {
	return &OTPRepo{client: client, tableName: tableName}
}

func (r *OTPRepo) Create(ctx context.Context, c *domain.OTPCode) error {
	item, err := attributevalue.MarshalMap(c)
	if err != nil {
		return fmt.Errorf("marshal otp code: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

// DeleteUnused removes every unused code of userID. Each delete is
// conditional on used=false so a code consumed meanwhile is kept.
func (r *OTPRepo) DeleteUnused(ctx context.Context, userID string) error {
	codes, err := r.queryUser(ctx, userID, "#u = :false", map[string]string{"#u": fieldUsed}, map[string]types.AttributeValue{
		":false": &types.AttributeValueMemberBOOL{Value: false},
	})
	if err != nil {
		return err
	}
	for _, c := range codes {
		_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
			TableName:                 aws.String(r.tableName),
			Key:                       otpKey(userID, c.OTPID),
			ConditionExpression:       aws.String("#u = :false"),
			ExpressionAttributeNames:  map[string]string{"#u": fieldUsed},
			ExpressionAttributeValues: map[string]types.AttributeValue{":false": &types.AttributeValueMemberBOOL{Value: false}},
		})
		var ccf *types.ConditionalCheckFailedException
		if err != nil && !errors.As(err, &ccf) {
			return fmt.Errorf("delete otp code %s: %w", c.OTPID, err)
		}
	}
	return nil
}

// FindUnused returns the newest unused code of userID equal to code.
func (r *OTPRepo) FindUnused(ctx context.Context, userID, code string) (*domain.OTPCode, error) {
	codes, err := r.queryUser(ctx, userID, "#c = :code AND #u = :false", map[string]string{
		"#c": fieldCode,
		"#u": fieldUsed,
	}, map[string]types.AttributeValue{
		":code":  &types.AttributeValueMemberS{Value: code},
		":false": &types.AttributeValueMemberBOOL{Value: false},
	})
	if err != nil {
		return nil, err
	}
	var newest *domain.OTPCode
	for i := range codes {
		if newest == nil || codes[i].CreatedAt.After(newest.CreatedAt) {
			newest = &codes[i]
		}
	}
	if newest == nil {
		return nil, fmt.Errorf("otp code not found: %w", domain.ErrNotFound)
	}
	return newest, nil
}

// MarkUsed flips used from false to true in one conditional write.
// ErrNotFound means the code is gone or was already consumed.
func (r *OTPRepo) MarkUsed(ctx context.Context, userID, otpID string, usedAt time.Time) error {
	in, err := markUsedInput(r.tableName, userID, otpID, usedAt)
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, in)
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return fmt.Errorf("otp code %s not redeemable: %w", otpID, domain.ErrNotFound)
	}
	return err
}

func markUsedInput(tableName, userID, otpID string, usedAt time.Time) (*dynamodb.UpdateItemInput, error) {
	ue, err := buildUpdateExpr(map[string]interface{}{
		fieldUsed:       true,
		fieldUsedAt:     usedAt.UTC(),
		fieldExpiresTTL: usedAt.Add(consumedRetention).Unix(),
	})
	if err != nil {
		return nil, err
	}
	ue.Names["#cond_id"] = fieldOTPID
	ue.Names["#cond_used"] = fieldUsed
	ue.Values[":cond_false"] = &types.AttributeValueMemberBOOL{Value: false}
	return &dynamodb.UpdateItemInput{
		TableName:                 aws.String(tableName),
		Key:                       otpKey(userID, otpID),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String("attribute_exists(#cond_id) AND #cond_used = :cond_false"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	}, nil
}

// queryUser pages through the codes of userID applying filter.
func (r *OTPRepo) queryUser(ctx context.Context, userID, filter string, names map[string]string, values map[string]types.AttributeValue) ([]domain.OTPCode, error) {
	var codes []domain.OTPCode
	p := dynamodb.NewQueryPaginator(r.client, queryUserInput(r.tableName, userID, filter, names, values))
	for p.HasMorePages() {
		out, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("query otp codes: %w", err)
		}
		var page []domain.OTPCode
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, fmt.Errorf("unmarshal otp codes: %w", err)
		}
		codes = append(codes, page...)
	}
	return codes, nil
}

// queryUserInput reads the base table strongly consistent so a code written
// by the previous request is always seen.
func queryUserInput(tableName, userID, filter string, names map[string]string, values map[string]types.AttributeValue) *dynamodb.QueryInput {
	names["#uid"] = fieldUserID
	values[":uid"] = &types.AttributeValueMemberS{Value: userID}
	return &dynamodb.QueryInput{
		TableName:                 aws.String(tableName),
		KeyConditionExpression:    aws.String("#uid = :uid"),
		FilterExpression:          aws.String(filter),
		ConsistentRead:            aws.Bool(true),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	}
}
