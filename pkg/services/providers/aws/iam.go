package aws

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/iam/types"

	"github.com/sudoersllc/opsbox-rego/pkg/models/domain"
)

type iamUserProvider struct {
	client *iam.Client
}

func NewIAMUserProvider(cfg aws.Config) *iamUserProvider {
	return &iamUserProvider{client: iam.NewFromConfig(cfg)}
}

func (p *iamUserProvider) Resource() string {
	return "iam_users"
}

func (p *iamUserProvider) Collect(ctx context.Context) (domain.Snapshot, error) {
	asOf := time.Now().UTC()

	var records []domain.Record
	paginator := iam.NewListUsersPaginator(p.client, &iam.ListUsersInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return domain.Snapshot{}, fmt.Errorf("failed to list IAM users: %w", err)
		}
		for _, user := range page.Users {
			userName := aws.ToString(user.UserName)

			keys, err := p.accessKeys(ctx, userName)
			if err != nil {
				return domain.Snapshot{}, err
			}
			passwordEnabled, err := p.passwordEnabled(ctx, userName)
			if err != nil {
				return domain.Snapshot{}, err
			}
			mfaActive, err := p.mfaActive(ctx, userName)
			if err != nil {
				return domain.Snapshot{}, err
			}

			rec := domain.Record{
				"user_name":        userName,
				"access_keys":      keys,
				"password_enabled": passwordEnabled,
				"mfa_active":       mfaActive,
			}
			if user.PasswordLastUsed != nil {
				rec["password_last_used"] = user.PasswordLastUsed.UTC().Format(time.RFC3339)
			}
			records = append(records, rec)
		}
	}

	return domain.Snapshot{Resource: p.Resource(), AsOf: asOf, Records: records}, nil
}

func (p *iamUserProvider) accessKeys(ctx context.Context, userName string) ([]any, error) {
	resp, err := p.client.ListAccessKeys(ctx, &iam.ListAccessKeysInput{
		UserName: aws.String(userName),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list access keys for %s: %w", userName, err)
	}

	keys := make([]any, 0, len(resp.AccessKeyMetadata))
	for _, key := range resp.AccessKeyMetadata {
		entry := map[string]any{
			"access_key_id": aws.ToString(key.AccessKeyId),
			"status":        string(key.Status),
		}
		if key.CreateDate != nil {
			entry["create_date"] = key.CreateDate.UTC().Format(time.RFC3339)
		}
		keys = append(keys, entry)
	}
	return keys, nil
}

func (p *iamUserProvider) passwordEnabled(ctx context.Context, userName string) (bool, error) {
	_, err := p.client.GetLoginProfile(ctx, &iam.GetLoginProfileInput{
		UserName: aws.String(userName),
	})
	if err != nil {
		var notFound *types.NoSuchEntityException
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to get login profile for %s: %w", userName, err)
	}
	return true, nil
}

func (p *iamUserProvider) mfaActive(ctx context.Context, userName string) (bool, error) {
	resp, err := p.client.ListMFADevices(ctx, &iam.ListMFADevicesInput{
		UserName: aws.String(userName),
	})
	if err != nil {
		return false, fmt.Errorf("failed to list MFA devices for %s: %w", userName, err)
	}
	return len(resp.MFADevices) > 0, nil
}

type iamPolicyProvider struct {
	client *iam.Client
}

func NewIAMPolicyProvider(cfg aws.Config) *iamPolicyProvider {
	return &iamPolicyProvider{client: iam.NewFromConfig(cfg)}
}

func (p *iamPolicyProvider) Resource() string {
	return "iam_policies"
}

func (p *iamPolicyProvider) Collect(ctx context.Context) (domain.Snapshot, error) {
	asOf := time.Now().UTC()

	var records []domain.Record
	paginator := iam.NewListPoliciesPaginator(p.client, &iam.ListPoliciesInput{
		Scope: types.PolicyScopeTypeLocal,
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return domain.Snapshot{}, fmt.Errorf("failed to list IAM policies: %w", err)
		}
		for _, pol := range page.Policies {
			rec := domain.Record{
				"policy_name":      aws.ToString(pol.PolicyName),
				"arn":              aws.ToString(pol.Arn),
				"attachment_count": float64(aws.ToInt32(pol.AttachmentCount)),
			}
			if pol.UpdateDate != nil {
				rec["update_date"] = pol.UpdateDate.UTC().Format(time.RFC3339)
			}
			records = append(records, rec)
		}
	}

	return domain.Snapshot{Resource: p.Resource(), AsOf: asOf, Records: records}, nil
}
