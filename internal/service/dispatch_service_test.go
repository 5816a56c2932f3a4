package service

import (
	"Herald/internal/api/dto"
	"Herald/internal/model"
	"Herald/internal/pkg/fcm"
	"Herald/internal/pkg/mongo"
	"context"
	"errors"
	"testing"
	"time"
)

type fakeTokenService struct {
	bundles map[uint64]*mongo.TokenBundleModel
	pruned  map[uint64][]string
}

func newFakeTokenService() *fakeTokenService {
	return &fakeTokenService{
		bundles: make(map[uint64]*mongo.TokenBundleModel),
		pruned:  make(map[uint64][]string),
	}
}

func (f *fakeTokenService) withTokens(userID uint64, prefs map[string]bool, tokens ...string) *fakeTokenService {
	devices := make([]mongo.DeviceToken, 0, len(tokens))
	now := time.Now()
	for _, t := range tokens {
		devices = append(devices, mongo.DeviceToken{Token: t, Platform: "android", CreatedAt: now, LastActiveAt: now})
	}
	f.bundles[userID] = &mongo.TokenBundleModel{UserID: userID, Tokens: devices, Preferences: prefs}
	return f
}

func (f *fakeTokenService) Register(context.Context, uint64, string, string) (*mongo.TokenBundleModel, error) {
	return nil, nil
}
func (f *fakeTokenService) GetBundle(_ context.Context, userID uint64) (*mongo.TokenBundleModel, error) {
	return f.bundles[userID], nil
}
func (f *fakeTokenService) SetPreferences(context.Context, uint64, map[string]bool) error { return nil }
func (f *fakeTokenService) Logout(context.Context, uint64) error                          { return nil }
func (f *fakeTokenService) Remove(context.Context, uint64, string) error                  { return nil }
func (f *fakeTokenService) PruneFailed(_ context.Context, userID uint64, failed []string) (*mongo.TokenBundleModel, error) {
	f.pruned[userID] = append(f.pruned[userID], failed...)
	return nil, nil
}

type statusCall struct {
	noticeID    string
	scope       string
	userID      uint64
	communityID uint64
}

type fakeNoticeService struct {
	records  int
	statuses []statusCall
	exists   bool
}

func (f *fakeNoticeService) CreateRecord(_ context.Context, _ string, _, _ uint64, _, _, _ string, _ map[string]string) string {
	f.records++
	return "507f1f77bcf86cd799439011"
}
func (f *fakeNoticeService) CreateStatus(_ context.Context, noticeID, scope string, userID, communityID uint64) error {
	f.statuses = append(f.statuses, statusCall{noticeID, scope, userID, communityID})
	return nil
}
func (f *fakeNoticeService) ListForUser(context.Context, uint64, int64, int64) ([]*dto.NoticeDTO, error) {
	return nil, nil
}
func (f *fakeNoticeService) UnreadCount(context.Context, uint64) (*dto.NoticeUnreadDTO, error) {
	return nil, nil
}
func (f *fakeNoticeService) MarkRead(context.Context, uint64, string) (*dto.NoticeDTO, error) {
	return nil, nil
}
func (f *fakeNoticeService) MarkAllRead(context.Context, uint64) ([]*dto.NoticeDTO, error) {
	return nil, nil
}
func (f *fakeNoticeService) PurgeOlderThan(context.Context, int) (int64, error) { return 0, nil }
func (f *fakeNoticeService) ExistsForEntity(context.Context, string) (bool, error) {
	return f.exists, nil
}

type fakeCommunityRepo struct {
	community  *model.Community
	members    []uint64
	moderators []uint64
}

func (f *fakeCommunityRepo) GetCommunityById(context.Context, uint64) (*model.Community, error) {
	return f.community, nil
}
func (f *fakeCommunityRepo) GetMemberIds(context.Context, uint64) ([]uint64, error) {
	return f.members, nil
}
func (f *fakeCommunityRepo) GetModeratorIds(context.Context, uint64) ([]uint64, error) {
	return f.moderators, nil
}

var errGatewayDown = errors.New("gateway down")
var errTokenDead = errors.New("token dead")

type fakeGateway struct {
	errByToken map[string]error
	sent       []string
}

func (f *fakeGateway) Send(_ context.Context, msg *fcm.Message) error {
	f.sent = append(f.sent, msg.Token)
	return f.errByToken[msg.Token]
}

func classifyForTest(err error) fcm.FailureClass {
	switch {
	case err == nil:
		return fcm.FailureNone
	case errors.Is(err, errTokenDead):
		return fcm.FailurePermanent
	default:
		return fcm.FailureTransient
	}
}

func newTestDispatcher(tokens *fakeTokenService, notices *fakeNoticeService, communities *fakeCommunityRepo, gateway *fakeGateway) *DispatchServiceImpl {
	return &DispatchServiceImpl{
		tokens:      tokens,
		notices:     notices,
		communities: communities,
		gateway:     gateway,
		classify:    classifyForTest,
		sendTimeout: time.Second,
		memberDelay: 0,
	}
}

// 无可用令牌：直接失败且不落任何通知记录
func TestSendToUserNoTokens(t *testing.T) {
	tokens := newFakeTokenService()
	notices := &fakeNoticeService{}
	svc := newTestDispatcher(tokens, notices, &fakeCommunityRepo{}, &fakeGateway{})

	result := svc.SendToUser(context.Background(), 1, 2, "标题", "正文", "social", nil, "")
	if result.Success {
		t.Error("should fail without tokens")
	}
	if result.Error != ResultNoTokens {
		t.Errorf("error = %q, want %q", result.Error, ResultNoTokens)
	}
	if notices.records != 0 || len(notices.statuses) != 0 {
		t.Error("no record or status should be created")
	}
}

func TestSendToUserPreferenceOff(t *testing.T) {
	tokens := newFakeTokenService().withTokens(1, map[string]bool{"social": false}, "t1")
	notices := &fakeNoticeService{}
	gateway := &fakeGateway{}
	svc := newTestDispatcher(tokens, notices, &fakeCommunityRepo{}, gateway)

	result := svc.SendToUser(context.Background(), 1, 2, "标题", "正文", "social", nil, "")
	if result.Success || result.Error != ResultCategoryOff {
		t.Errorf("result = %+v, want category off", result)
	}
	if notices.records != 0 || len(notices.statuses) != 0 {
		t.Error("opted-out user must not receive a record or status")
	}
	if len(gateway.sent) != 0 {
		t.Error("nothing should be sent")
	}
}

func TestSendToUserSuccess(t *testing.T) {
	tokens := newFakeTokenService().withTokens(1, nil, "t1", "t2")
	notices := &fakeNoticeService{}
	gateway := &fakeGateway{}
	svc := newTestDispatcher(tokens, notices, &fakeCommunityRepo{}, gateway)

	result := svc.SendToUser(context.Background(), 1, 2, "标题", "正文", "social", map[string]string{"entity_id": "e1"}, "")
	if !result.Success || result.SuccessCount != 2 || result.FailureCount != 0 {
		t.Errorf("result = %+v", result)
	}
	if notices.records != 1 {
		t.Errorf("records = %d, want 1", notices.records)
	}
	if len(notices.statuses) != 1 || notices.statuses[0].userID != 1 {
		t.Errorf("statuses = %+v", notices.statuses)
	}
	if len(tokens.pruned[1]) != 0 {
		t.Error("no token should be pruned on success")
	}
}

// 永久失败的令牌批量剔除，瞬时失败的保留
func TestSendToUserPrunesPermanentOnly(t *testing.T) {
	tokens := newFakeTokenService().withTokens(1, nil, "good", "dead", "flaky")
	gateway := &fakeGateway{errByToken: map[string]error{
		"dead":  errTokenDead,
		"flaky": errGatewayDown,
	}}
	svc := newTestDispatcher(tokens, &fakeNoticeService{}, &fakeCommunityRepo{}, gateway)

	result := svc.SendToUser(context.Background(), 1, 2, "标题", "正文", "social", nil, "")
	if !result.Success || result.SuccessCount != 1 || result.FailureCount != 2 {
		t.Errorf("result = %+v", result)
	}
	pruned := tokens.pruned[1]
	if len(pruned) != 1 || pruned[0] != "dead" {
		t.Errorf("pruned = %v, want [dead]", pruned)
	}
}

func TestSendToUserAllTransient(t *testing.T) {
	tokens := newFakeTokenService().withTokens(1, nil, "t1")
	gateway := &fakeGateway{errByToken: map[string]error{"t1": errGatewayDown}}
	svc := newTestDispatcher(tokens, &fakeNoticeService{}, &fakeCommunityRepo{}, gateway)

	result := svc.SendToUser(context.Background(), 1, 2, "标题", "正文", "social", nil, "")
	if result.Success || result.Error != ResultAllFailed {
		t.Errorf("result = %+v", result)
	}
	if len(tokens.pruned[1]) != 0 {
		t.Error("transient failure must not prune")
	}
}

// 社区广播跳过触发者本人，共享一条正文
func TestSendToCommunityExcludesActor(t *testing.T) {
	tokens := newFakeTokenService().
		withTokens(1, nil, "u1").
		withTokens(2, nil, "u2").
		withTokens(3, nil, "u3")
	notices := &fakeNoticeService{}
	communities := &fakeCommunityRepo{
		community: &model.Community{ID: 7},
		members:   []uint64{1, 2, 3},
	}
	gateway := &fakeGateway{}
	svc := newTestDispatcher(tokens, notices, communities, gateway)

	result := svc.SendToCommunity(context.Background(), 7, 2, "公告", "正文", "announcement", nil, 2, "")
	if !result.Success {
		t.Fatalf("result = %+v", result)
	}
	if result.TotalUsers != 2 || result.SentCount != 2 {
		t.Errorf("totals = %d/%d, want 2/2", result.SentCount, result.TotalUsers)
	}
	if notices.records != 1 {
		t.Errorf("records = %d, want exactly one shared record", notices.records)
	}
	for _, st := range notices.statuses {
		if st.userID == 2 {
			t.Error("excluded member must not get a status")
		}
		if st.communityID != 7 {
			t.Errorf("communityID = %d, want 7", st.communityID)
		}
	}
	if len(notices.statuses) != 2 {
		t.Errorf("statuses = %d, want 2", len(notices.statuses))
	}
}

func TestSendToCommunityMissing(t *testing.T) {
	svc := newTestDispatcher(newFakeTokenService(), &fakeNoticeService{}, &fakeCommunityRepo{}, &fakeGateway{})

	result := svc.SendToCommunity(context.Background(), 7, 2, "公告", "正文", "announcement", nil, 0, "")
	if result.Success || result.Error != ResultCommunityAbsent {
		t.Errorf("result = %+v", result)
	}
}

// 重试回传上次的通知ID：一个逻辑事件只落一条正文和一条状态行
func TestSendToUserRetryReusesRecord(t *testing.T) {
	tokens := newFakeTokenService().withTokens(1, nil, "t1")
	notices := &fakeNoticeService{}
	gateway := &fakeGateway{errByToken: map[string]error{"t1": errGatewayDown}}
	svc := newTestDispatcher(tokens, notices, &fakeCommunityRepo{}, gateway)

	first := svc.SendToUser(context.Background(), 1, 2, "标题", "正文", "social", nil, "")
	if first.Success || first.NoticeID == "" {
		t.Fatalf("first = %+v, want failure with notice id", first)
	}

	second := svc.SendToUser(context.Background(), 1, 2, "标题", "正文", "social", nil, first.NoticeID)
	if second.NoticeID != first.NoticeID {
		t.Errorf("notice id changed across retry: %q vs %q", first.NoticeID, second.NoticeID)
	}
	if notices.records != 1 {
		t.Errorf("records = %d, want 1 across retries", notices.records)
	}
	if len(notices.statuses) != 1 {
		t.Errorf("statuses = %d, want 1 across retries", len(notices.statuses))
	}
}

func TestSendToCommunityRetryReusesRecord(t *testing.T) {
	tokens := newFakeTokenService().withTokens(1, nil, "u1").withTokens(3, nil, "u3")
	notices := &fakeNoticeService{}
	communities := &fakeCommunityRepo{
		community: &model.Community{ID: 7},
		members:   []uint64{1, 3},
	}
	gateway := &fakeGateway{errByToken: map[string]error{"u1": errGatewayDown, "u3": errGatewayDown}}
	svc := newTestDispatcher(tokens, notices, communities, gateway)

	first := svc.SendToCommunity(context.Background(), 7, 2, "公告", "正文", "announcement", nil, 0, "")
	if first.Success || first.NoticeID == "" {
		t.Fatalf("first = %+v, want failure with notice id", first)
	}
	if notices.records != 1 || len(notices.statuses) != 2 {
		t.Fatalf("first pass: records = %d statuses = %d", notices.records, len(notices.statuses))
	}

	second := svc.SendToCommunity(context.Background(), 7, 2, "公告", "正文", "announcement", nil, 0, first.NoticeID)
	if second.NoticeID != first.NoticeID {
		t.Errorf("notice id changed across retry: %q vs %q", first.NoticeID, second.NoticeID)
	}
	if notices.records != 1 {
		t.Errorf("records = %d, want 1 across retries", notices.records)
	}
	if len(notices.statuses) != 2 {
		t.Errorf("statuses = %d, want unchanged across retries", len(notices.statuses))
	}
}

func TestTerminalPredicates(t *testing.T) {
	if !TerminalPush(&dto.PushResult{Success: true}) {
		t.Error("success is terminal")
	}
	if !TerminalPush(&dto.PushResult{Error: ResultNoTokens}) {
		t.Error("no tokens is terminal")
	}
	if TerminalPush(&dto.PushResult{Error: ResultAllFailed}) {
		t.Error("all failed should be retryable")
	}
	if !TerminalBroadcast(&dto.BroadcastResult{Error: ResultCommunityAbsent}) {
		t.Error("missing community is terminal")
	}
	if TerminalBroadcast(&dto.BroadcastResult{Error: ResultAllFailed}) {
		t.Error("failed broadcast should be retryable")
	}
}
