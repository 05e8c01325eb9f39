package services

import (
	"context"
	"math"

	"club-platform/models"

	"gorm.io/gorm"
)

// LevelConfig: XP needed for *next* level (level 1 → 2 needs BaseXPPerLevel * 1^1.2)
const BaseXPPerLevel = 100

// xpForNextLevel returns XP required to reach level+1 from current level
// e.g., xpForNextLevel(1) = XP to go from L1 → L2
func xpForNextLevel(currentLevel int) int64 {
	if currentLevel < 1 {
		currentLevel = 1
	}
	// L_n = floor(BaseXPPerLevel * n^1.2)
	return int64(float64(BaseXPPerLevel) * math.Pow(float64(currentLevel), 1.2))
}

// TierThresholds: level required for each tier
var TierThresholds = map[int]int{ // tier → min level
	1: 1,  // Bronze (start)
	2: 5,  // Silver
	3: 10, // Gold
	4: 20, // Platinum
	5: 35, // Diamond
}

var tierNames = map[int]string{1: "Bronze", 2: "Silver", 3: "Gold", 4: "Platinum", 5: "Diamond"}

func determineTier(level int) int {
	for tier := 5; tier >= 1; tier-- {
		if level >= TierThresholds[tier] {
			return tier
		}
	}
	return 1
}

type LevelInfo struct {
	XP          int64  `json:"xp"`
	Level       int    `json:"level"`
	Tier        int    `json:"tier"`
	TierName    string `json:"tier_name"`
	LevelFloor  int64  `json:"level_floor"`   // total XP at which this level began
	NextLevelAt int64  `json:"next_level_at"` // total XP needed for level+1
}

// LevelForXP derives level and tier from a total. Levels are never stored.
func LevelForXP(xp int64) LevelInfo {
	if xp < 0 {
		xp = 0
	}
	level := 1
	floor := int64(0)
	for {
		step := xpForNextLevel(level)
		if xp < floor+step {
			break
		}
		floor += step
		level++
	}
	tier := determineTier(level)
	return LevelInfo{
		XP:          xp,
		Level:       level,
		Tier:        tier,
		TierName:    tierNames[tier],
		LevelFloor:  floor,
		NextLevelAt: floor + xpForNextLevel(level),
	}
}

type ProgressionService struct {
	DB *gorm.DB
}

func NewProgressionService(db *gorm.DB) *ProgressionService {
	return &ProgressionService{DB: db}
}

type LeaderboardEntry struct {
	Position    int    `json:"position"`
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	XP          int64  `json:"xp"`
	Level       int    `json:"level"`
	TierName    string `json:"tier_name"`
}

// Leaderboard ranks users by XP. Ties share a position.
func (s *ProgressionService) Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var users []models.User
	if err := s.DB.WithContext(ctx).
		Select("id", "display_name", "xp").
		Order("xp DESC").Order("display_name ASC").
		Limit(limit).
		Find(&users).Error; err != nil {
		return nil, storeError("leaderboard", err)
	}

	out := make([]LeaderboardEntry, len(users))
	for i, u := range users {
		pos := i + 1
		if i > 0 && u.XP == users[i-1].XP {
			pos = out[i-1].Position
		}
		lvl := LevelForXP(u.XP)
		out[i] = LeaderboardEntry{
			Position:    pos,
			UserID:      u.ID,
			DisplayName: u.DisplayName,
			XP:          u.XP,
			Level:       lvl.Level,
			TierName:    lvl.TierName,
		}
	}
	return out, nil
}

// Progress is a user's level plus their most recent XP grants.
type Progress struct {
	LevelInfo
	History []models.XPLedgerEntry `json:"history"`
}

func (s *ProgressionService) GetProgress(ctx context.Context, userID string, historyLimit int) (*Progress, error) {
	var user models.User
	if err := s.DB.WithContext(ctx).Select("id", "xp").First(&user, "id = ?", userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrUserNotFound
		}
		return nil, storeError("get user", err)
	}
	history, err := s.History(ctx, userID, historyLimit)
	if err != nil {
		return nil, err
	}
	return &Progress{LevelInfo: LevelForXP(user.XP), History: history}, nil
}

// History lists XP grants newest first.
func (s *ProgressionService) History(ctx context.Context, userID string, limit int) ([]models.XPLedgerEntry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var entries []models.XPLedgerEntry
	if err := s.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error; err != nil {
		return nil, storeError("xp history", err)
	}
	return entries, nil
}
