//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/weiluo/roamstory/internal/bootstrap"
	"github.com/weiluo/roamstory/internal/domain/atlas"
	"github.com/weiluo/roamstory/internal/domain/auth"
	"github.com/weiluo/roamstory/internal/domain/community"
	"github.com/weiluo/roamstory/internal/domain/diary"
	"github.com/weiluo/roamstory/internal/domain/poster"
	"github.com/weiluo/roamstory/internal/domain/story"
	"github.com/weiluo/roamstory/internal/infra/config"
	httpiface "github.com/weiluo/roamstory/internal/interface/http"
	"github.com/weiluo/roamstory/pkg/logger"
)

func initializeApp() (*bootstrap.App, error) {
	wire.Build(
		config.Load,
		logger.New,
		provideStoryConfig,
		provideAuthConfig,
		provideDiaryConfig,
		provideCommunityConfig,
		providePosterConfig,
		provideChatGPTClient,
		provideAmapClient,
		provideStoryChatClient,
		provideStoryPlacesClient,
		provideAtlasPlacesClient,
		providePgPool,
		provideUserRepository,
		provideDiaryRepository,
		provideCommunityRepository,
		providePosterRepository,
		provideLikeStore,
		provideStorage,
		provideEmbedder,
		provideImageClient,
		story.NewService,
		atlas.NewService,
		auth.NewService,
		diary.NewService,
		community.NewService,
		poster.NewService,
		httpiface.NewHandler,
		httpiface.NewAuthHandler,
		httpiface.NewDiaryHandler,
		httpiface.NewCommunityHandler,
		httpiface.NewPosterHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil
}
