package mocks

import (
	"context"
	"io"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"marketplace-service/internal/auction"
	"marketplace-service/internal/catalog"
	"marketplace-service/internal/models"
	"marketplace-service/internal/uploads"
)

type AdRepositoryMock struct {
	mock.Mock
}

func (m *AdRepositoryMock) CreateAd(ctx context.Context, ad models.Ad) error {
	args := m.Called(ctx, ad)
	return args.Error(0)
}

func (m *AdRepositoryMock) GetAd(ctx context.Context, adID uuid.UUID) (models.Ad, error) {
	args := m.Called(ctx, adID)
	var ad models.Ad
	if val := args.Get(0); val != nil {
		ad = val.(models.Ad)
	}
	return ad, args.Error(1)
}

func (m *AdRepositoryMock) ListAds(ctx context.Context, cursor catalog.Cursor, limit int) ([]models.Ad, error) {
	args := m.Called(ctx, cursor, limit)
	var ads []models.Ad
	if val := args.Get(0); val != nil {
		ads = val.([]models.Ad)
	}
	return ads, args.Error(1)
}

func (m *AdRepositoryMock) ListAdsByUser(ctx context.Context, userID string) ([]models.Ad, error) {
	args := m.Called(ctx, userID)
	var ads []models.Ad
	if val := args.Get(0); val != nil {
		ads = val.([]models.Ad)
	}
	return ads, args.Error(1)
}

func (m *AdRepositoryMock) UpdateAd(ctx context.Context, ad models.Ad) error {
	args := m.Called(ctx, ad)
	return args.Error(0)
}

func (m *AdRepositoryMock) DeleteAd(ctx context.Context, adID uuid.UUID) error {
	args := m.Called(ctx, adID)
	return args.Error(0)
}

type AuctionRepositoryMock struct {
	mock.Mock
}

func (m *AuctionRepositoryMock) PlaceBid(ctx context.Context, adID uuid.UUID, offer auction.Offer, bidder auction.Bidder) (auction.Result, error) {
	args := m.Called(ctx, adID, offer, bidder)
	var res auction.Result
	if val := args.Get(0); val != nil {
		res = val.(auction.Result)
	}
	return res, args.Error(1)
}

func (m *AuctionRepositoryMock) ListBids(ctx context.Context, adID uuid.UUID, limit int) ([]models.Bid, error) {
	args := m.Called(ctx, adID, limit)
	var bids []models.Bid
	if val := args.Get(0); val != nil {
		bids = val.([]models.Bid)
	}
	return bids, args.Error(1)
}

func (m *AuctionRepositoryMock) ListBidsByUser(ctx context.Context, bidderID string) ([]models.Bid, error) {
	args := m.Called(ctx, bidderID)
	var bids []models.Bid
	if val := args.Get(0); val != nil {
		bids = val.([]models.Bid)
	}
	return bids, args.Error(1)
}

type ConversationRepositoryMock struct {
	mock.Mock
}

func (m *ConversationRepositoryMock) CreateOrGetConversation(ctx context.Context, adID uuid.UUID, userID, otherID string) (models.Conversation, error) {
	args := m.Called(ctx, adID, userID, otherID)
	var conv models.Conversation
	if val := args.Get(0); val != nil {
		conv = val.(models.Conversation)
	}
	return conv, args.Error(1)
}

func (m *ConversationRepositoryMock) GetConversation(ctx context.Context, conversationID int) (models.Conversation, error) {
	args := m.Called(ctx, conversationID)
	var conv models.Conversation
	if val := args.Get(0); val != nil {
		conv = val.(models.Conversation)
	}
	return conv, args.Error(1)
}

func (m *ConversationRepositoryMock) ListConversations(ctx context.Context, userID string) ([]models.Conversation, error) {
	args := m.Called(ctx, userID)
	var convs []models.Conversation
	if val := args.Get(0); val != nil {
		convs = val.([]models.Conversation)
	}
	return convs, args.Error(1)
}

func (m *ConversationRepositoryMock) AppendMessage(ctx context.Context, conversationID int, senderID, text string) (models.Message, error) {
	args := m.Called(ctx, conversationID, senderID, text)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *ConversationRepositoryMock) ListMessages(ctx context.Context, conversationID int) ([]models.Message, error) {
	args := m.Called(ctx, conversationID)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

func (m *ConversationRepositoryMock) MarkRead(ctx context.Context, conversationID int, userID string) error {
	args := m.Called(ctx, conversationID, userID)
	return args.Error(0)
}

func (m *ConversationRepositoryMock) DeleteForAd(ctx context.Context, adID uuid.UUID) error {
	args := m.Called(ctx, adID)
	return args.Error(0)
}

type FavoriteRepositoryMock struct {
	mock.Mock
}

func (m *FavoriteRepositoryMock) AddFavorite(ctx context.Context, adID uuid.UUID, userID string) error {
	args := m.Called(ctx, adID, userID)
	return args.Error(0)
}

func (m *FavoriteRepositoryMock) RemoveFavorite(ctx context.Context, adID uuid.UUID, userID string) error {
	args := m.Called(ctx, adID, userID)
	return args.Error(0)
}

func (m *FavoriteRepositoryMock) ListFavorites(ctx context.Context, userID string) ([]uuid.UUID, error) {
	args := m.Called(ctx, userID)
	var ids []uuid.UUID
	if val := args.Get(0); val != nil {
		ids = val.([]uuid.UUID)
	}
	return ids, args.Error(1)
}

func (m *FavoriteRepositoryMock) IsFavorite(ctx context.Context, adID uuid.UUID, userID string) (bool, error) {
	args := m.Called(ctx, adID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *FavoriteRepositoryMock) DeleteForAd(ctx context.Context, adID uuid.UUID) error {
	args := m.Called(ctx, adID)
	return args.Error(0)
}

type UserRepositoryMock struct {
	mock.Mock
}

func (m *UserRepositoryMock) UpsertUser(ctx context.Context, user models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *UserRepositoryMock) GetUser(ctx context.Context, userID string) (models.User, error) {
	args := m.Called(ctx, userID)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) GetUsers(ctx context.Context, userIDs []string) ([]models.User, error) {
	args := m.Called(ctx, userIDs)
	var users []models.User
	if val := args.Get(0); val != nil {
		users = val.([]models.User)
	}
	return users, args.Error(1)
}

func (m *UserRepositoryMock) SetOnline(ctx context.Context, userID string, online bool) error {
	args := m.Called(ctx, userID, online)
	return args.Error(0)
}

type UploaderMock struct {
	mock.Mock
}

func (m *UploaderMock) Upload(ctx context.Context, file io.Reader, adID string) (uploads.UploadedImage, error) {
	args := m.Called(ctx, file, adID)
	var img uploads.UploadedImage
	if val := args.Get(0); val != nil {
		img = val.(uploads.UploadedImage)
	}
	return img, args.Error(1)
}

func (m *UploaderMock) Remove(ctx context.Context, publicID string) error {
	args := m.Called(ctx, publicID)
	return args.Error(0)
}
