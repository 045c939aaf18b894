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

type fakeTemplateRepo struct {
	templates map[uint]*domain.WorkflowTemplate
	nextID    uint
}

func newFakeTemplateRepo() *fakeTemplateRepo {
	return &fakeTemplateRepo{templates: make(map[uint]*domain.WorkflowTemplate)}
}

func (r *fakeTemplateRepo) Save(_ context.Context, tpl *domain.WorkflowTemplate) error {
	r.nextID++
	tpl.ID = r.nextID
	r.templates[tpl.ID] = tpl
	return nil
}

func (r *fakeTemplateRepo) Get(_ context.Context, id uint) (*domain.WorkflowTemplate, error) {
	return r.templates[id], nil
}

func (r *fakeTemplateRepo) Update(_ context.Context, tpl *domain.WorkflowTemplate) error {
	r.templates[tpl.ID] = tpl
	return nil
}

func (r *fakeTemplateRepo) List(_ context.Context, offset, limit int) ([]*domain.WorkflowTemplate, int64, error) {
	var out []*domain.WorkflowTemplate
	for _, tpl := range r.templates {
		out = append(out, tpl)
	}
	return out, int64(len(out)), nil
}

func (r *fakeTemplateRepo) FindActiveByVisaType(_ context.Context, visaType string) (*domain.WorkflowTemplate, error) {
	for _, tpl := range r.templates {
		if tpl.Active && tpl.VisaType == visaType {
			return tpl, nil
		}
	}
	return nil, nil
}

// fakeWorkflowRepo 以克隆实现读写隔离，未经 Update 的原地修改不会落库。
type fakeWorkflowRepo struct {
	workflows map[uint]*domain.ApplicationWorkflow
	nextID    uint
}

func newFakeWorkflowRepo() *fakeWorkflowRepo {
	return &fakeWorkflowRepo{workflows: make(map[uint]*domain.ApplicationWorkflow)}
}

func cloneWorkflow(wf *domain.ApplicationWorkflow) *domain.ApplicationWorkflow {
	if wf == nil {
		return nil
	}
	clone := *wf
	clone.Checklist = append(domain.Checklist(nil), wf.Checklist...)
	clone.Rules = append(domain.AutomationRules(nil), wf.Rules...)
	clone.Status = make(domain.ChecklistStatus, len(wf.Status))
	for name, entry := range wf.Status {
		clone.Status[name] = entry
	}
	return &clone
}

func (r *fakeWorkflowRepo) Save(_ context.Context, wf *domain.ApplicationWorkflow) error {
	r.nextID++
	wf.ID = r.nextID
	r.workflows[wf.ID] = cloneWorkflow(wf)
	return nil
}

func (r *fakeWorkflowRepo) Get(_ context.Context, id uint) (*domain.ApplicationWorkflow, error) {
	return cloneWorkflow(r.workflows[id]), nil
}

func (r *fakeWorkflowRepo) FindByApplication(_ context.Context, applicationID uint) (*domain.ApplicationWorkflow, error) {
	for _, wf := range r.workflows {
		if wf.ApplicationID == applicationID {
			return cloneWorkflow(wf), nil
		}
	}
	return nil, nil
}

func (r *fakeWorkflowRepo) FindByApplicationForUpdate(ctx context.Context, applicationID uint) (*domain.ApplicationWorkflow, error) {
	return r.FindByApplication(ctx, applicationID)
}

func (r *fakeWorkflowRepo) Update(_ context.Context, wf *domain.ApplicationWorkflow) error {
	r.workflows[wf.ID] = cloneWorkflow(wf)
	return nil
}

func (r *fakeWorkflowRepo) WithTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

type stubDirectory struct {
	visaTypes map[uint]string
}

func (d stubDirectory) VisaType(_ context.Context, applicationID uint) (string, error) {
	vt, ok := d.visaTypes[applicationID]
	if !ok {
		return "", errs.New(errs.CodeNotFound, "application %d not found", applicationID)
	}
	return vt, nil
}

type wfPublisher struct {
	topics []string
	events []any
}

func (p *wfPublisher) PublishInTx(_ context.Context, _ any, topic, _ string, event any) error {
	p.topics = append(p.topics, topic)
	p.events = append(p.events, event)
	return nil
}

type wfObserver struct {
	events []domain.WorkflowCompletedEvent
}

func (o *wfObserver) OnWorkflowCompleted(_ context.Context, event domain.WorkflowCompletedEvent) {
	o.events = append(o.events, event)
}

type wfFixture struct {
	svc       *WorkflowCommandService
	templates *fakeTemplateRepo
	workflows *fakeWorkflowRepo
	publisher *wfPublisher
	observer  *wfObserver
}

func newWfFixture(t *testing.T) *wfFixture {
	t.Helper()
	f := &wfFixture{
		templates: newFakeTemplateRepo(),
		workflows: newFakeWorkflowRepo(),
		publisher: &wfPublisher{},
		observer:  &wfObserver{},
	}
	directory := stubDirectory{visaTypes: map[uint]string{1: "tourist", 2: "business"}}
	f.svc = NewWorkflowCommandService(f.workflows, f.templates, directory, f.publisher, slog.New(slog.DiscardHandler))
	f.svc.AddObserver(f.observer)

	err := f.templates.Save(context.Background(), &domain.WorkflowTemplate{
		Name:     "tourist-standard",
		VisaType: "tourist",
		Active:   true,
		Checklist: domain.Checklist{
			{Name: "identity_check", Label: "身份核验", Required: true},
			{Name: "biometrics", Label: "生物信息采集", Required: true},
			{Name: "interview", Label: "面谈", Required: false},
		},
		Rules: domain.AutomationRules{{Effect: domain.RuleEffectNotify, Target: "ops-queue"}},
	})
	require.NoError(t, err)
	return f
}

func TestInitializeWorkflowMatchesTemplate(t *testing.T) {
	f := newWfFixture(t)

	wf, err := f.svc.InitializeWorkflow(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "tourist-standard", wf.TemplateName)
	assert.Len(t, wf.Status, 3)
}

func TestInitializeWorkflowAlreadyInitialized(t *testing.T) {
	f := newWfFixture(t)
	_, err := f.svc.InitializeWorkflow(context.Background(), 1)
	require.NoError(t, err)

	_, err = f.svc.InitializeWorkflow(context.Background(), 1)
	require.Error(t, err)
	assert.Equal(t, errs.CodeAlreadyInitialized, errs.CodeOf(err))
}

func TestInitializeWorkflowNoMatchingTemplate(t *testing.T) {
	f := newWfFixture(t)

	_, err := f.svc.InitializeWorkflow(context.Background(), 2)
	require.Error(t, err)
	assert.Equal(t, errs.CodeNoMatchingTemplate, errs.CodeOf(err))
}

func TestUpdateChecklistUnknownItem(t *testing.T) {
	f := newWfFixture(t)
	_, err := f.svc.InitializeWorkflow(context.Background(), 1)
	require.NoError(t, err)

	_, err = f.svc.UpdateChecklist(context.Background(), 1, map[string]bool{"medical_exam": true})
	require.Error(t, err)
	assert.Equal(t, errs.CodeUnknownChecklistItem, errs.CodeOf(err))
}

func TestUpdateChecklistEmptyPatch(t *testing.T) {
	f := newWfFixture(t)
	_, err := f.svc.InitializeWorkflow(context.Background(), 1)
	require.NoError(t, err)

	_, err = f.svc.UpdateChecklist(context.Background(), 1, map[string]bool{})
	require.Error(t, err)
	assert.Equal(t, errs.CodeInvalidArgument, errs.CodeOf(err))
}

func TestUpdateChecklistWithoutWorkflow(t *testing.T) {
	f := newWfFixture(t)
	_, err := f.svc.UpdateChecklist(context.Background(), 1, map[string]bool{"identity_check": true})
	require.Error(t, err)
	assert.Equal(t, errs.CodeNotFound, errs.CodeOf(err))
}

func TestUpdateChecklistCompletionPublishesOnce(t *testing.T) {
	f := newWfFixture(t)
	_, err := f.svc.InitializeWorkflow(context.Background(), 1)
	require.NoError(t, err)

	_, err = f.svc.UpdateChecklist(context.Background(), 1, map[string]bool{"identity_check": true})
	require.NoError(t, err)
	assert.Empty(t, f.observer.events)

	wf, err := f.svc.UpdateChecklist(context.Background(), 1, map[string]bool{"biometrics": true})
	require.NoError(t, err)
	require.NotNil(t, wf.CompletedAt)

	require.Len(t, f.observer.events, 1)
	event := f.observer.events[0]
	assert.Equal(t, domain.TopicWorkflowCompleted, f.publisher.topics[len(f.publisher.topics)-1])
	// notify 规则在完成事件上生效
	assert.True(t, event.Notify)
	assert.Equal(t, "ops-queue", event.NotifyTarget)

	// 可选项不影响完成判定，也不重复发布
	_, err = f.svc.UpdateChecklist(context.Background(), 1, map[string]bool{"interview": true})
	require.NoError(t, err)
	assert.Len(t, f.observer.events, 1)
}

func TestUpdateChecklistPatchCompletesOnce(t *testing.T) {
	f := newWfFixture(t)
	_, err := f.svc.InitializeWorkflow(context.Background(), 1)
	require.NoError(t, err)

	// 一次补丁覆盖全部必需项，完成判定在合并后只做一次
	wf, err := f.svc.UpdateChecklist(context.Background(), 1, map[string]bool{
		"identity_check": true,
		"biometrics":     true,
	})
	require.NoError(t, err)
	require.NotNil(t, wf.CompletedAt)
	assert.Len(t, f.observer.events, 1)
	assert.Len(t, f.publisher.topics, 1)
}

func TestUpdateChecklistPatchAtomicOnUnknownItem(t *testing.T) {
	f := newWfFixture(t)
	_, err := f.svc.InitializeWorkflow(context.Background(), 1)
	require.NoError(t, err)

	_, err = f.svc.UpdateChecklist(context.Background(), 1, map[string]bool{
		"identity_check": true,
		"medical_exam":   true,
	})
	require.Error(t, err)
	assert.Equal(t, errs.CodeUnknownChecklistItem, errs.CodeOf(err))

	// 整个补丁回滚，合法条目也保持原状
	wf, err := f.workflows.FindByApplication(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, wf.Status["identity_check"].Done)
	assert.Empty(t, f.observer.events)
}

func TestUpdateChecklistUncompleteResetsCompletedAt(t *testing.T) {
	f := newWfFixture(t)
	_, err := f.svc.InitializeWorkflow(context.Background(), 1)
	require.NoError(t, err)
	_, err = f.svc.UpdateChecklist(context.Background(), 1, map[string]bool{"identity_check": true})
	require.NoError(t, err)
	_, err = f.svc.UpdateChecklist(context.Background(), 1, map[string]bool{"biometrics": true})
	require.NoError(t, err)

	wf, err := f.svc.UpdateChecklist(context.Background(), 1, map[string]bool{"biometrics": false})
	require.NoError(t, err)
	assert.Nil(t, wf.CompletedAt)

	// 再次完成会再次发布
	wf, err = f.svc.UpdateChecklist(context.Background(), 1, map[string]bool{"biometrics": true})
	require.NoError(t, err)
	require.NotNil(t, wf.CompletedAt)
	assert.Len(t, f.observer.events, 2)
}

func TestApplyTemplateCreatesOrResets(t *testing.T) {
	f := newWfFixture(t)
	tpl, err := f.templates.FindActiveByVisaType(context.Background(), "tourist")
	require.NoError(t, err)

	wf, err := f.svc.ApplyTemplate(context.Background(), 5, tpl.ID)
	require.NoError(t, err)
	assert.Equal(t, uint(5), wf.ApplicationID)

	_, err = f.svc.UpdateChecklist(context.Background(), 5, map[string]bool{"identity_check": true})
	require.NoError(t, err)

	wf, err = f.svc.ApplyTemplate(context.Background(), 5, tpl.ID)
	require.NoError(t, err)
	assert.False(t, wf.Status["identity_check"].Done)
	assert.Nil(t, wf.CompletedAt)
}

func TestApplyTemplateUnknownTemplate(t *testing.T) {
	f := newWfFixture(t)
	_, err := f.svc.ApplyTemplate(context.Background(), 1, 404)
	require.Error(t, err)
	assert.Equal(t, errs.CodeNotFound, errs.CodeOf(err))
}
