package service

import (
	"Herald/internal/api/dto"
	"Herald/internal/pkg/consts"
	"Herald/internal/pkg/mongo"
	"context"
	"errors"
	log "log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"go.mongodb.org/mongo-driver/bson/primitive"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
)

// 正文入库失败时的降级ID前缀，带此前缀的通知只推送不落库
const localNoticePrefix = "local-"

type NoticeService interface {
	CreateRecord(ctx context.Context, scope string, scopeID, createdBy uint64, title, body, category string, payload map[string]string) string
	CreateStatus(ctx context.Context, noticeID, scope string, userID, communityID uint64) error
	ListForUser(ctx context.Context, userID uint64, page, pageSize int64) ([]*dto.NoticeDTO, error)
	UnreadCount(ctx context.Context, userID uint64) (*dto.NoticeUnreadDTO, error)
	MarkRead(ctx context.Context, userID uint64, statusID string) (*dto.NoticeDTO, error)
	MarkAllRead(ctx context.Context, userID uint64) ([]*dto.NoticeDTO, error)
	PurgeOlderThan(ctx context.Context, days int) (int64, error)
	ExistsForEntity(ctx context.Context, entityID string) (bool, error)
}

type NoticeServiceImpl struct {
	userNotices      mongo.NoticeRepo
	communityNotices mongo.NoticeRepo
	statusRepo       mongo.NoticeStatusRepo
	resolver         NameResolver
}

func NewNoticeService(
	userNotices mongo.NoticeRepo,
	communityNotices mongo.NoticeRepo,
	statusRepo mongo.NoticeStatusRepo,
	resolver NameResolver,
) NoticeService {
	return &NoticeServiceImpl{
		userNotices:      userNotices,
		communityNotices: communityNotices,
		statusRepo:       statusRepo,
		resolver:         resolver,
	}
}

func (s *NoticeServiceImpl) recordRepo(scope string) mongo.NoticeRepo {
	if scope == consts.ScopeCommunity {
		return s.communityNotices
	}
	return s.userNotices
}

// CreateRecord 持久化通知正文。存储故障不阻断推送链路：
// 降级返回本地ID，正文丢失但推送照常发出
func (s *NoticeServiceImpl) CreateRecord(ctx context.Context, scope string, scopeID, createdBy uint64, title, body, category string, payload map[string]string) string {
	if payload == nil {
		payload = map[string]string{}
	}
	notice := &mongo.NoticeModel{
		Title:     title,
		Body:      body,
		Category:  category,
		Payload:   payload,
		ScopeID:   scopeID,
		CreatedBy: createdBy,
		CreatedAt: time.Now(),
	}

	id, err := s.recordRepo(scope).Create(ctx, notice)
	if err != nil {
		log.ErrorContext(ctx, "notice storage degraded, using local id",
			"scope", scope, "category", category, "err", err)
		return localNoticePrefix + uuid.NewString()
	}
	return id
}

// CreateStatus 写入未读状态行，行存在即未读。
// 降级本地ID的正文不可读，不落状态行，未读数与列表保持一致
func (s *NoticeServiceImpl) CreateStatus(ctx context.Context, noticeID, scope string, userID, communityID uint64) error {
	if strings.HasPrefix(noticeID, localNoticePrefix) {
		return nil
	}
	status := &mongo.NoticeStatusModel{
		UserID:      userID,
		NoticeID:    noticeID,
		Scope:       scope,
		CommunityID: communityID,
		CreatedAt:   time.Now(),
	}
	_, err := s.statusRepo.Create(ctx, status)
	return err
}

// ListForUser 分页拉取未读通知，状态行与两个正文集合合并后按时间倒序
func (s *NoticeServiceImpl) ListForUser(ctx context.Context, userID uint64, page, pageSize int64) ([]*dto.NoticeDTO, error) {
	statuses, err := s.statusRepo.ListByUser(ctx, userID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, err
	}
	return s.assembleDTOs(ctx, statuses)
}

func (s *NoticeServiceImpl) UnreadCount(ctx context.Context, userID uint64) (*dto.NoticeUnreadDTO, error) {
	count, err := s.statusRepo.CountByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &dto.NoticeUnreadDTO{UnreadCount: count}, nil
}

// MarkRead 标记已读即删除状态行，返回合并后的通知视图
func (s *NoticeServiceImpl) MarkRead(ctx context.Context, userID uint64, statusID string) (*dto.NoticeDTO, error) {
	oid, err := primitive.ObjectIDFromHex(statusID)
	if err != nil {
		return nil, ErrParamInvalid
	}

	status, err := s.statusRepo.GetById(ctx, oid)
	if err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return nil, ErrNoticeNotFound
		}
		return nil, err
	}
	if status.UserID != userID {
		return nil, UnauthorizedError
	}

	dtos, err := s.assembleDTOs(ctx, []*mongo.NoticeStatusModel{status})
	if err != nil {
		return nil, err
	}

	if err = s.statusRepo.DeleteById(ctx, oid); err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return nil, ErrNoticeNotFound
		}
		return nil, err
	}

	if len(dtos) == 0 {
		// 正文已被清理或当初降级未落库，只返回标识信息
		return &dto.NoticeDTO{
			StatusID: statusID,
			NoticeID: status.NoticeID,
			Scope:    status.Scope,
		}, nil
	}
	return dtos[0], nil
}

// MarkAllRead 一次性清空用户全部未读
func (s *NoticeServiceImpl) MarkAllRead(ctx context.Context, userID uint64) ([]*dto.NoticeDTO, error) {
	statuses, err := s.statusRepo.ListAllByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(statuses) == 0 {
		return []*dto.NoticeDTO{}, nil
	}

	dtos, err := s.assembleDTOs(ctx, statuses)
	if err != nil {
		return nil, err
	}

	ids := make([]primitive.ObjectID, 0, len(statuses))
	for _, st := range statuses {
		ids = append(ids, st.ID)
	}
	if _, err = s.statusRepo.DeleteByIds(ctx, ids); err != nil {
		return nil, err
	}
	return dtos, nil
}

// PurgeOlderThan 清理过期通知，返回删除的状态行数
func (s *NoticeServiceImpl) PurgeOlderThan(ctx context.Context, days int) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -days)

	deleted, err := s.statusRepo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	userDeleted, err := s.userNotices.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		log.WarnContext(ctx, "purge user notices failed", "err", err)
	}
	communityDeleted, err := s.communityNotices.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		log.WarnContext(ctx, "purge community notices failed", "err", err)
	}

	log.InfoContext(ctx, "notice purge finished",
		"cutoffDays", days, "statuses", deleted,
		"userNotices", userDeleted, "communityNotices", communityDeleted)
	return deleted, nil
}

// ExistsForEntity 实体级去重查询，两个正文集合任一命中即存在
func (s *NoticeServiceImpl) ExistsForEntity(ctx context.Context, entityID string) (bool, error) {
	exists, err := s.userNotices.ExistsByEntity(ctx, entityID)
	if err != nil {
		return false, err
	}
	if exists {
		return true, nil
	}
	return s.communityNotices.ExistsByEntity(ctx, entityID)
}

// assembleDTOs 按范围分别批量拉取正文，再按状态行顺序拼装。
// 正文缺失（已清理或降级未落库）的状态行跳过
func (s *NoticeServiceImpl) assembleDTOs(ctx context.Context, statuses []*mongo.NoticeStatusModel) ([]*dto.NoticeDTO, error) {
	userIDs := make([]primitive.ObjectID, 0)
	communityIDs := make([]primitive.ObjectID, 0)
	for _, st := range statuses {
		if strings.HasPrefix(st.NoticeID, localNoticePrefix) {
			continue
		}
		oid, err := primitive.ObjectIDFromHex(st.NoticeID)
		if err != nil {
			continue
		}
		if st.Scope == consts.ScopeCommunity {
			communityIDs = append(communityIDs, oid)
		} else {
			userIDs = append(userIDs, oid)
		}
	}

	records := make(map[string]*mongo.NoticeModel, len(userIDs)+len(communityIDs))
	userRecords, err := s.userNotices.GetByIds(ctx, userIDs)
	if err != nil {
		return nil, err
	}
	for _, r := range userRecords {
		records[r.ID.Hex()] = r
	}
	communityRecords, err := s.communityNotices.GetByIds(ctx, communityIDs)
	if err != nil {
		return nil, err
	}
	for _, r := range communityRecords {
		records[r.ID.Hex()] = r
	}

	dtos := make([]*dto.NoticeDTO, 0, len(statuses))
	for _, st := range statuses {
		record, ok := records[st.NoticeID]
		if !ok {
			continue
		}

		d := &dto.NoticeDTO{}
		if err = copier.Copy(d, record); err != nil {
			log.WarnContext(ctx, "copy notice record failed", "noticeID", st.NoticeID, "err", err)
			continue
		}
		d.StatusID = st.ID.Hex()
		d.NoticeID = st.NoticeID
		d.Scope = st.Scope
		d.CommunityID = st.CommunityID
		d.SenderID = record.CreatedBy
		d.CreatedAt = st.CreatedAt.Format(time.DateTime)

		sender := s.resolver.Resolve(ctx, record.CreatedBy)
		d.SenderName = sender.Name
		d.AvatarURL = sender.AvatarURL

		dtos = append(dtos, d)
	}
	return dtos, nil
}
