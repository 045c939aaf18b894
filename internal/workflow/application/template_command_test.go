package application

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wyfcoding/visabackoffice/internal/workflow/domain"
	"github.com/wyfcoding/visabackoffice/pkg/errs"
)

func newTemplateSvc() (*TemplateCommandService, *fakeTemplateRepo) {
	repo := newFakeTemplateRepo()
	return NewTemplateCommandService(repo, slog.New(slog.DiscardHandler)), repo
}

func TestCreateTemplateValidation(t *testing.T) {
	svc, _ := newTemplateSvc()
	ctx := context.Background()

	_, err := svc.CreateTemplate(ctx, "", "tourist", domain.Checklist{{Name: "a"}}, nil)
	assert.Equal(t, errs.CodeInvalidArgument, errs.CodeOf(err))

	_, err = svc.CreateTemplate(ctx, "t", "tourist", nil, nil)
	assert.Equal(t, errs.CodeInvalidArgument, errs.CodeOf(err))

	_, err = svc.CreateTemplate(ctx, "t", "tourist", domain.Checklist{{Name: ""}}, nil)
	assert.Equal(t, errs.CodeInvalidArgument, errs.CodeOf(err))

	_, err = svc.CreateTemplate(ctx, "t", "tourist", domain.Checklist{{Name: "a"}, {Name: "a"}}, nil)
	assert.Equal(t, errs.CodeInvalidArgument, errs.CodeOf(err))
}

func TestCreateTemplateActiveByDefault(t *testing.T) {
	svc, repo := newTemplateSvc()

	tpl, err := svc.CreateTemplate(context.Background(), "tourist-standard", "tourist",
		domain.Checklist{{Name: "identity_check", Required: true}}, nil)
	require.NoError(t, err)
	assert.True(t, tpl.Active)

	found, err := repo.FindActiveByVisaType(context.Background(), "tourist")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, tpl.ID, found.ID)
}

func TestUpdateTemplatePartial(t *testing.T) {
	svc, _ := newTemplateSvc()
	tpl, err := svc.CreateTemplate(context.Background(), "tourist-standard", "tourist",
		domain.Checklist{{Name: "identity_check", Required: true}}, nil)
	require.NoError(t, err)

	updated, err := svc.UpdateTemplate(context.Background(), tpl.ID, "tourist-v2", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "tourist-v2", updated.Name)
	assert.Len(t, updated.Checklist, 1)
}

func TestDeactivateTemplateStopsMatching(t *testing.T) {
	svc, repo := newTemplateSvc()
	tpl, err := svc.CreateTemplate(context.Background(), "tourist-standard", "tourist",
		domain.Checklist{{Name: "identity_check", Required: true}}, nil)
	require.NoError(t, err)

	require.NoError(t, svc.DeactivateTemplate(context.Background(), tpl.ID))

	found, err := repo.FindActiveByVisaType(context.Background(), "tourist")
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestDeactivateTemplateNotFound(t *testing.T) {
	svc, _ := newTemplateSvc()
	err := svc.DeactivateTemplate(context.Background(), 404)
	assert.Equal(t, errs.CodeNotFound, errs.CodeOf(err))
}
